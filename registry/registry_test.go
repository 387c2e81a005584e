package registry

import (
	"testing"

	"github.com/andrz/tieredlru/cache"
	"github.com/andrz/tieredlru/key"
)

type widget struct{ Name string }

type widgetController struct{ cache.BaseController[widget] }

func (widgetController) Create(k key.Key) *widget {
	return &widget{Name: k.String()}
}

type gadget struct{ Serial int }

type gadgetController struct{ cache.BaseController[gadget] }

func (gadgetController) Create(key.Key) *gadget { return &gadget{} }

func TestBuild_RegistersAndGetReturnsSameInstance(t *testing.T) {
	t.Cleanup(func() { Remove[widget]() })

	built := Build[widget](cache.Options[widget]{Controller: widgetController{}})

	got, ok := Get[widget]()
	if !ok || got != built {
		t.Fatal("Get must return the exact instance Build registered")
	}
}

func TestBuild_PanicsOnDuplicate(t *testing.T) {
	t.Cleanup(func() { Remove[gadget]() })

	Build[gadget](cache.Options[gadget]{Controller: gadgetController{}})

	defer func() {
		if recover() == nil {
			t.Fatal("building a second cache for the same type must panic")
		}
	}()
	Build[gadget](cache.Options[gadget]{Controller: gadgetController{}})
}

func TestGet_AbsentTypeReturnsFalse(t *testing.T) {
	type neverBuilt struct{}
	if _, ok := Get[neverBuilt](); ok {
		t.Fatal("Get for an unregistered type must report false")
	}
}

type rebuildable struct{ N int }

type rebuildableController struct{ cache.BaseController[rebuildable] }

func (rebuildableController) Create(key.Key) *rebuildable { return &rebuildable{} }

func TestRemove_AllowsRebuilding(t *testing.T) {
	opts := cache.Options[rebuildable]{Controller: rebuildableController{}}
	first := Build[rebuildable](opts)

	if !Remove[rebuildable]() {
		t.Fatal("Remove must report true for a registered type")
	}
	if Remove[rebuildable]() {
		t.Fatal("Remove must report false the second time")
	}

	second := Build[rebuildable](opts)
	t.Cleanup(func() { Remove[rebuildable]() })

	if second == first {
		t.Fatal("rebuilding after Remove must produce a fresh instance")
	}
}
