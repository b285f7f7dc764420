package benchmark

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// ParticipantCounts defines the participant counts for benchmarking.
var ParticipantCounts = []int{4, 8, 16, 64, 256}

// SmallParticipantCounts for quick benchmarks.
var SmallParticipantCounts = []int{4, 16, 64}

// tableState builds a session state tree resembling a live table.
func tableState(round int, active string) *domain.Value {
	return domain.Object(map[string]*domain.Value{
		"round":             domain.Number(float64(round)),
		"phase":             domain.String("betting"),
		"pot":               domain.Number(float64(round * 150)),
		"activeParticipant": domain.String(active),
		"board": domain.Array(
			domain.String("Ah"),
			domain.String("Kd"),
			domain.String("7c"),
		),
	})
}

// participantState builds a per-participant state tree.
func participantState(seat int, balance float64) *domain.Value {
	return domain.Object(map[string]*domain.Value{
		"seat":    domain.Number(float64(seat)),
		"balance": domain.Number(balance),
		"folded":  domain.Bool(seat%7 == 0),
		"hand": domain.Array(
			domain.String("Qs"),
			domain.String("Jh"),
		),
	})
}

// participantStates builds count per-participant state trees.
func participantStates(count int) map[string]*domain.Value {
	states := make(map[string]*domain.Value, count)
	for i := 0; i < count; i++ {
		states[fmt.Sprintf("player-%d", i)] = participantState(i, 1000.0+float64(i))
	}
	return states
}

// newAction builds a test action for the given participant and timestamp.
func newAction(participant string, ts int64) *domain.Action {
	id, _ := domain.GenerateActionID()
	return &domain.Action{
		ID:            id,
		ParticipantID: participant,
		Type:          "raise",
		Payload:       domain.Object(map[string]*domain.Value{"amount": domain.Number(50)}),
		Timestamp:     ts,
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithParticipantCounts runs a benchmark function with various participant counts.
func runWithParticipantCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("participants_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
