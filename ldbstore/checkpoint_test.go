package ldbstore

import (
	"os"
	"testing"

	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/mbabramo/ACESim4-sub001"
	"github.com/mbabramo/ACESim4-sub001/kuhn"
	"github.com/mbabramo/ACESim4-sub001/tree"
)

func newKuhn(t testing.TB) *cfr.Navigation {
	game := kuhn.NewGame()
	nav, err := cfr.NewNavigation(cfr.CompactHistoryReplay, game, cfr.NewInformationSetTables(game))
	if err != nil {
		t.Fatal(err)
	}
	return nav
}

func openTemp(t testing.TB) (*Checkpoint, string) {
	tmpDir, err := os.MkdirTemp("", "cfr-test-")
	if err != nil {
		t.Fatal(err)
	}

	c, err := Open(tmpDir, &opt.Options{})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatal(err)
	}

	return c, tmpDir
}

func TestSaveLoad(t *testing.T) {
	c, tmpDir := openTemp(t)
	defer os.RemoveAll(tmpDir)
	defer c.Close()

	nav := newKuhn(t)
	v := cfr.NewVanilla(nav, cfr.DiscountParams{})
	for i := 0; i < 100; i++ {
		v.Run()
	}

	if err := c.Save(nav.Stores, v.Iter()); err != nil {
		t.Fatal(err)
	}

	restored := newKuhn(t)
	iter, err := c.Load(restored.Stores)
	if err != nil {
		t.Fatal(err)
	}

	if iter != v.Iter() {
		t.Errorf("expected iteration %d, got %d", v.Iter(), iter)
	}

	for i, store := range nav.Stores {
		if n := restored.Stores[i].Len(); n != store.Len() {
			t.Errorf("store %d: expected %d records, got %d", i, store.Len(), n)
		}
	}

	expected := make(map[int][]float64)
	policy := make([]float64, 2)
	tree.VisitInfoSets(nav.Root(), func(player int, tally *cfr.InformationSetNodeTally) {
		tally.AverageStrategyPolicy(policy)
		expected[len(expected)] = append([]float64(nil), policy...)
	})

	i := 0
	tree.VisitInfoSets(restored.Root(), func(player int, tally *cfr.InformationSetNodeTally) {
		tally.AverageStrategyPolicy(policy)
		prev := expected[i]
		if policy[0] != prev[0] || policy[1] != prev[1] {
			t.Errorf("failed to reload policy: expected %v, got %v", prev, policy)
		}
		i++
	})
}

func TestLoadEmpty(t *testing.T) {
	c, tmpDir := openTemp(t)
	defer os.RemoveAll(tmpDir)
	defer c.Close()

	nav := newKuhn(t)
	iter, err := c.Load(nav.Stores)
	if err != nil {
		t.Fatal(err)
	}

	if iter != 0 || nav.Stores[kuhn.Player0].Len() != 0 {
		t.Errorf("expected empty checkpoint, got iteration %d", iter)
	}
}

func TestLoadWrongGame(t *testing.T) {
	c, tmpDir := openTemp(t)
	defer os.RemoveAll(tmpDir)
	defer c.Close()

	nav := newKuhn(t)
	cfr.NewVanilla(nav, cfr.DiscountParams{}).Run()
	if err := c.Save(nav.Stores, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Load(newKuhn(t).Stores[:2]); err == nil {
		t.Error("expected error loading into too few stores")
	}
}

func BenchmarkSave(b *testing.B) {
	c, tmpDir := openTemp(b)
	defer os.RemoveAll(tmpDir)
	defer c.Close()

	nav := newKuhn(b)
	cfr.NewVanilla(nav, cfr.DiscountParams{}).Run()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Save(nav.Stores, i); err != nil {
			b.Fatal(err)
		}
	}
}
