package inputs

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/binding/slider"
	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/jslider"
	"github.com/vango-dev/sliderbind/pkg/ratelimit"
)

type sent struct {
	id string
	v  binding.Value
}

type recordingSink struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingSink) SetInput(id string, v binding.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{id, v})
}

func (r *recordingSink) take() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

type fixture struct {
	doc    *dom.Document
	clock  *ratelimit.ManualClock
	sink   *recordingSink
	binder *Binder
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := binding.NewRegistry()
	if err := slider.Register(reg, discard()); err != nil {
		t.Fatal(err)
	}
	doc := dom.NewDocument()
	jslider.Install(doc)
	clock := ratelimit.NewManualClock()
	sink := &recordingSink{}
	return &fixture{
		doc:    doc,
		clock:  clock,
		sink:   sink,
		binder: NewBinder(reg, sink, WithLogger(discard()), WithClock(clock)),
	}
}

func (f *fixture) addSlider(parent *dom.Element, id, value string) *dom.Element {
	el := f.doc.CreateElement("input").SetAttr("id", id).AddClass("jslider").
		SetAttr("data-from", "0").SetAttr("data-to", "100").SetAttr("value", value)
	parent.AppendChild(el)
	return el
}

func TestBindSendsInitialValues(t *testing.T) {
	f := newFixture(t)
	f.addSlider(f.doc.Root(), "a", "10")
	f.addSlider(f.doc.Root(), "b", "20;30")

	n, err := f.binder.Bind(f.doc.Root())
	if err != nil || n != 2 {
		t.Fatalf("Bind() = %d, %v", n, err)
	}

	got := f.sink.take()
	if len(got) != 2 {
		t.Fatalf("sent %d values, want 2", len(got))
	}
	if got[0].id != "a" || !got[0].v.ApproxEqual(binding.Single(10), 0) {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].id != "b" || !got[1].v.ApproxEqual(binding.Pair(20, 30), 0) {
		t.Errorf("second = %+v", got[1])
	}

	n, err = f.binder.Bind(f.doc.Root())
	if err != nil || n != 0 {
		t.Errorf("second Bind() = %d, %v; want 0", n, err)
	}
	if ids := f.binder.IDs(); len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestDragIsDebounced(t *testing.T) {
	f := newFixture(t)
	el := f.addSlider(f.doc.Root(), "speed", "0")
	if _, err := f.binder.Bind(f.doc.Root()); err != nil {
		t.Fatal(err)
	}
	f.sink.take()

	w := jslider.Of(el)
	for v := 1.0; v <= 10; v++ {
		w.Drag(v)
		f.clock.Advance(50 * time.Millisecond)
	}
	if got := f.sink.take(); len(got) != 0 {
		t.Fatalf("values sent during drag: %+v", got)
	}

	f.clock.Advance(slider.DebounceDelay)
	got := f.sink.take()
	if len(got) != 1 || got[0].id != "speed" || got[0].v.Float() != 10 {
		t.Fatalf("after quiet window sent %+v, want final value 10", got)
	}
}

func TestAnimatingBypassesDebounce(t *testing.T) {
	f := newFixture(t)
	el := f.addSlider(f.doc.Root(), "anim", "0")
	if _, err := f.binder.Bind(f.doc.Root()); err != nil {
		t.Fatal(err)
	}
	f.sink.take()

	el.SetData("animating", true)
	jslider.Of(el).Drag(7)

	got := f.sink.take()
	if len(got) != 1 || got[0].v.Float() != 7 {
		t.Errorf("animating change sent %+v, want immediate 7", got)
	}
}

func TestNoResend(t *testing.T) {
	f := newFixture(t)
	el := f.addSlider(f.doc.Root(), "same", "5")
	if _, err := f.binder.Bind(f.doc.Root()); err != nil {
		t.Fatal(err)
	}
	f.sink.take()

	jslider.Of(el).Drag(5)
	f.clock.Advance(time.Second)
	if got := f.sink.take(); len(got) != 0 {
		t.Errorf("unchanged value resent: %+v", got)
	}

	jslider.Of(el).Drag(6)
	f.clock.Advance(time.Second)
	if got := f.sink.take(); len(got) != 1 {
		t.Errorf("changed value sent %d times, want 1", len(got))
	}
}

func TestDeliver(t *testing.T) {
	f := newFixture(t)
	f.doc.Root().AppendChild(f.doc.CreateElement("label").SetAttr("for", "d"))
	f.addSlider(f.doc.Root(), "d", "1")
	if _, err := f.binder.Bind(f.doc.Root()); err != nil {
		t.Fatal(err)
	}
	f.sink.take()

	label := "Distance"
	v := binding.Single(42)
	if err := f.binder.Deliver("d", binding.Message{Value: &v, Label: &label}); err != nil {
		t.Fatal(err)
	}

	if got, _ := f.binder.Value("d"); got.Float() != 42 {
		t.Errorf("Value() = %v", got)
	}
	st, ok := f.binder.State("d")
	if !ok || st.Label != "Distance" {
		t.Errorf("State() = %+v, %v", st, ok)
	}

	// The synthesized change relays the pushed value after the window.
	f.clock.Advance(slider.DebounceDelay)
	if got := f.sink.take(); len(got) != 1 || got[0].v.Float() != 42 {
		t.Errorf("sent %+v", got)
	}

	if err := f.binder.Deliver("missing", binding.LabelMessage("x")); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("Deliver(missing) = %v", err)
	}
}

func TestUnbind(t *testing.T) {
	f := newFixture(t)
	left := f.doc.CreateElement("div")
	right := f.doc.CreateElement("div")
	f.doc.Root().AppendChild(left).AppendChild(right)
	a := f.addSlider(left, "a", "1")
	b := f.addSlider(right, "b", "1")
	if _, err := f.binder.Bind(f.doc.Root()); err != nil {
		t.Fatal(err)
	}
	f.sink.take()

	jslider.Of(a).Drag(2) // pending in the debounce window
	if n := f.binder.Unbind(left); n != 1 {
		t.Fatalf("Unbind() = %d, want 1", n)
	}
	if a.ListenerCount("change") != 0 {
		t.Error("listener left on unbound element")
	}

	jslider.Of(a).Drag(3)
	jslider.Of(b).Drag(4)
	f.clock.Advance(time.Second)

	got := f.sink.take()
	if len(got) != 1 || got[0].id != "b" {
		t.Errorf("sent %+v, want only b", got)
	}
	if _, ok := f.binder.Element("a"); ok {
		t.Error("a still bound")
	}

	// Rebinding picks the element up again and resends its value.
	if n, _ := f.binder.Bind(left); n != 1 {
		t.Errorf("rebind = %d", n)
	}
	if got := f.sink.take(); len(got) != 1 || got[0].id != "a" {
		t.Errorf("rebind sent %+v", got)
	}
}

func TestRemoveUnbinds(t *testing.T) {
	f := newFixture(t)
	el := f.addSlider(f.doc.Root(), "gone", "1")
	if _, err := f.binder.Bind(f.doc.Root()); err != nil {
		t.Fatal(err)
	}

	el.Remove()
	if _, ok := f.binder.Element("gone"); ok {
		t.Error("removed element still bound")
	}
	if el.ListenerCount("") != 0 {
		t.Error("listeners left after removal")
	}
}

func TestBindErrors(t *testing.T) {
	f := newFixture(t)
	f.addSlider(f.doc.Root(), "dup", "1")
	f.addSlider(f.doc.Root(), "dup", "2")
	f.doc.Root().AppendChild(f.doc.CreateElement("input").AddClass("jslider"))
	f.addSlider(f.doc.Root(), "bad", "1").SetAttr("data-step", "-1")

	n, err := f.binder.Bind(f.doc.Root())
	if n != 1 {
		t.Errorf("Bind() bound %d, want 1", n)
	}
	if !errors.Is(err, ErrDuplicateInput) {
		t.Errorf("Bind() error %v does not report duplicate", err)
	}
	if !errors.Is(err, jslider.ErrInvalidSetting) {
		t.Errorf("Bind() error %v does not report invalid setting", err)
	}
}

func TestBindWithoutLibrary(t *testing.T) {
	f := newFixture(t)
	doc := dom.NewDocument()
	doc.Root().AppendChild(doc.CreateElement("input").SetAttr("id", "x").AddClass("jslider"))

	n, err := f.binder.Bind(doc.Root())
	if n != 0 || err != nil {
		t.Errorf("Bind() = %d, %v; want nothing bound", n, err)
	}
}

func TestStatesAndClose(t *testing.T) {
	f := newFixture(t)
	a := f.addSlider(f.doc.Root(), "a", "1")
	f.addSlider(f.doc.Root(), "b", "2;3")
	if _, err := f.binder.Bind(f.doc.Root()); err != nil {
		t.Fatal(err)
	}

	states := f.binder.States()
	if len(states) != 2 || states["a"].Max != 100 || !states["b"].Value.IsPair() {
		t.Errorf("States() = %+v", states)
	}

	f.binder.Close()
	if len(f.binder.IDs()) != 0 {
		t.Error("inputs left after Close")
	}
	if a.ListenerCount("") != 0 {
		t.Error("listeners left after Close")
	}
}
