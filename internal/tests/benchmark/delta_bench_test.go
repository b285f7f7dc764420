package benchmark

import (
	"fmt"
	"testing"

	"github.com/yndnr/tablesync-go/internal/core/domain"
	"github.com/yndnr/tablesync-go/internal/core/service"
	"github.com/yndnr/tablesync-go/internal/storage/memory"
)

// BenchmarkDeltaGenerate benchmarks delta generation between consecutive snapshots.
func BenchmarkDeltaGenerate(b *testing.B) {
	runWithParticipantCounts(b, ParticipantCounts, func(b *testing.B, count int) {
		builder := service.NewSnapshotBuilder()
		engine := service.NewDeltaEngine()

		states := participantStates(count)
		from := builder.CreateSnapshot(tableState(1, "player-0"), states)

		// Mutate one participant so the diff is non-trivial but small.
		states["player-0"] = participantState(0, 825.0)
		to := builder.CreateSnapshot(tableState(2, "player-1"), states)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := engine.GenerateDelta(from, to); err != nil {
				b.Fatalf("GenerateDelta failed: %v", err)
			}
		}

		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkDeltaApply benchmarks applying a delta to a snapshot.
func BenchmarkDeltaApply(b *testing.B) {
	runWithParticipantCounts(b, SmallParticipantCounts, func(b *testing.B, count int) {
		builder := service.NewSnapshotBuilder()
		engine := service.NewDeltaEngine()

		states := participantStates(count)
		from := builder.CreateSnapshot(tableState(1, "player-0"), states)
		states["player-0"] = participantState(0, 825.0)
		to := builder.CreateSnapshot(tableState(2, "player-1"), states)

		delta, err := engine.GenerateDelta(from, to)
		if err != nil {
			b.Fatalf("GenerateDelta failed: %v", err)
		}

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := engine.ApplyDelta(from, delta); err != nil {
				b.Fatalf("ApplyDelta failed: %v", err)
			}
		}
	})
}

// BenchmarkDeltaCompress benchmarks compressing chains of various lengths.
func BenchmarkDeltaCompress(b *testing.B) {
	for _, chainLen := range []int{10, 50, 200} {
		b.Run(fmt.Sprintf("chain_%d", chainLen), func(b *testing.B) {
			engine := service.NewDeltaEngine()

			chain := make([]*domain.StateDelta, chainLen)
			for i := 0; i < chainLen; i++ {
				chain[i] = domain.NewStateDelta(uint64(i+1), uint64(i+2), []domain.Change{
					{Path: "sessionState.pot", OldValue: domain.Number(float64(i * 50)), NewValue: domain.Number(float64((i + 1) * 50))},
					{Path: fmt.Sprintf("participantStates.player-%d.folded", i%4), OldValue: domain.Bool(false), NewValue: domain.Bool(true)},
				})
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := engine.CompressDeltas(chain); err != nil {
					b.Fatalf("CompressDeltas failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkHistoryRecord benchmarks recording deltas into the in-memory ring.
func BenchmarkHistoryRecord(b *testing.B) {
	b.ReportAllocs()

	history := memory.NewHistory(memory.DefaultRetention)
	for i := 0; i < b.N; i++ {
		delta := domain.NewStateDelta(uint64(i+1), uint64(i+2), []domain.Change{
			{Path: "sessionState.round", OldValue: domain.Number(float64(i)), NewValue: domain.Number(float64(i + 1))},
		})
		if err := history.Record(delta); err != nil {
			b.Fatalf("Record failed: %v", err)
		}
	}
}
