package tree

import (
	"testing"

	"github.com/mbabramo/ACESim4-sub001"
	"github.com/mbabramo/ACESim4-sub001/kuhn"
)

func newRoot(t *testing.T) cfr.StatePoint {
	game := kuhn.NewGame()
	nav, err := cfr.NewNavigation(cfr.MaterializedTree, game, cfr.NewInformationSetTables(game))
	if err != nil {
		t.Fatal(err)
	}

	return nav.Root()
}

func TestVisitSkipsImpossibleDeals(t *testing.T) {
	Visit(newRoot(t), func(p cfr.StatePoint) {
		actions := p.ActionsTaken()
		if len(actions) >= 2 && actions[0] == actions[1] {
			t.Errorf("visited impossible deal %v", p)
		}
	})
}

func TestVisitInfoSetsOnce(t *testing.T) {
	root := newRoot(t)
	seen := make(map[*cfr.InformationSetNodeTally]int)
	VisitInfoSets(root, func(player int, tally *cfr.InformationSetNodeTally) {
		seen[tally]++
		if player != kuhn.Player0 && player != kuhn.Player1 {
			t.Errorf("info set of non-strategic player %d", player)
		}
	})

	for tally, n := range seen {
		if n != 1 {
			t.Errorf("visited %v %d times", tally, n)
		}
	}

	if len(seen) != CountInfoSets(root) {
		t.Errorf("expected %d info sets, counted %d", len(seen), CountInfoSets(root))
	}
}

func BenchmarkCountNodes(b *testing.B) {
	game := kuhn.NewGame()
	nav, err := cfr.NewNavigation(cfr.CompactHistoryReplay, game, cfr.NewInformationSetTables(game))
	if err != nil {
		b.Fatal(err)
	}

	root := nav.Root()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CountNodes(root)
	}
}
