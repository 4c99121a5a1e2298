package perf

import (
	"sort"
	"testing"
	"time"

	"github.com/meridian-crm/meridian-crm/internal/auth"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/shared"
	_ "github.com/meridian-crm/meridian-crm/internal/testing/guard"
)

// Token resolution sits on every request, so mint+parse must stay well under
// the request budget even on a loaded box.
func TestTokenRoundTripLatencyTarget(t *testing.T) {
	codec := auth.NewTokenCodec("perf-secret", time.Hour)

	samples := make([]time.Duration, 0, 50)
	for i := 0; i < 50; i++ {
		start := time.Now()
		minted, err := codec.Mint(int64(i + 1))
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if _, err := codec.Parse(minted.Raw); err != nil {
			t.Fatalf("parse: %v", err)
		}
		samples = append(samples, time.Since(start))
	}

	p95 := percentile95(samples)
	if p95 > 50*time.Millisecond {
		t.Fatalf("token round trip regression: p95=%s threshold=50ms", p95)
	}
}

func TestGuardDecisionLatencyTarget(t *testing.T) {
	guard := rbac.NewGuard(nil)
	principal := shared.NewPrincipal(1, "perf@meridian.local", "Perf", rbac.RoleGestion, []string{
		rbac.PermClientRead, rbac.PermClientWrite,
		rbac.PermContractRead, rbac.PermContractWrite,
		rbac.PermEventRead, rbac.PermEventWrite,
		rbac.PermUserManage, rbac.PermRBACManage,
	})

	samples := make([]time.Duration, 0, 200)
	for i := 0; i < 200; i++ {
		start := time.Now()
		if err := guard.Require(principal, rbac.PermContractWrite); err != nil {
			t.Fatalf("require: %v", err)
		}
		samples = append(samples, time.Since(start))
	}

	p95 := percentile95(samples)
	if p95 > time.Millisecond {
		t.Fatalf("guard decision regression: p95=%s threshold=1ms", p95)
	}
}

func BenchmarkTokenMint(b *testing.B) {
	codec := auth.NewTokenCodec("perf-secret", time.Hour)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := codec.Mint(42); err != nil {
			b.Fatalf("mint: %v", err)
		}
	}
}

func BenchmarkTokenParse(b *testing.B) {
	codec := auth.NewTokenCodec("perf-secret", time.Hour)
	minted, err := codec.Mint(42)
	if err != nil {
		b.Fatalf("mint: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := codec.Parse(minted.Raw); err != nil {
			b.Fatalf("parse: %v", err)
		}
	}
}

func BenchmarkGuardRequire(b *testing.B) {
	guard := rbac.NewGuard(nil)
	principal := shared.NewPrincipal(1, "perf@meridian.local", "Perf", rbac.RoleCommercial,
		[]string{rbac.PermClientRead, rbac.PermClientWrite, rbac.PermContractRead, rbac.PermContractWrite, rbac.PermEventRead})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = guard.Require(principal, rbac.PermClientWrite)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
