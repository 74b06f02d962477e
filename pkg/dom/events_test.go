package dom

import "testing"

func TestOnOffTrigger(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("input")

	var calls []string
	h1 := el.On("change", func(ev *Event) {
		if ev.Target != el || ev.Type != "change" {
			t.Errorf("unexpected event %+v", ev)
		}
		calls = append(calls, "first")
	})
	h2 := el.On("change", func(*Event) { calls = append(calls, "second") })
	el.On("input", func(*Event) { calls = append(calls, "input") })

	if h1 == 0 || h2 == 0 || h1 == h2 {
		t.Fatalf("handles not unique: %d %d", h1, h2)
	}

	el.Trigger("change")
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("calls = %v", calls)
	}

	if !el.Off(h1) {
		t.Error("Off(h1) = false")
	}
	if el.Off(h1) {
		t.Error("second Off(h1) = true")
	}
	if el.Off(0) {
		t.Error("Off(0) = true")
	}

	calls = nil
	el.Trigger("change")
	if len(calls) != 1 || calls[0] != "second" {
		t.Errorf("after Off calls = %v", calls)
	}
	if n := el.ListenerCount(""); n != 2 {
		t.Errorf("ListenerCount = %d, want 2", n)
	}
}

func TestOffDuringDispatch(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("input")

	count := 0
	var h Handle
	h = el.On("change", func(*Event) {
		count++
		el.Off(h)
	})
	el.On("change", func(*Event) { count++ })

	el.Trigger("change")
	el.Trigger("change")

	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestHandlesUniqueAcrossElements(t *testing.T) {
	d := NewDocument()
	a := d.CreateElement("input")
	b := d.CreateElement("input")

	ha := a.On("change", func(*Event) {})
	hb := b.On("change", func(*Event) {})
	if ha == hb {
		t.Fatal("handles collide across elements")
	}
	if b.Off(ha) {
		t.Error("handle from another element removed a listener")
	}
}

func TestHandlesAfterOffOnDetachedNode(t *testing.T) {
	el := &Node{Kind: KindElement, Tag: "input"}

	var calls []string
	h1 := el.On("change", func(*Event) { calls = append(calls, "first") })
	h2 := el.On("change", func(*Event) { calls = append(calls, "second") })
	el.Off(h1)
	h3 := el.On("change", func(*Event) { calls = append(calls, "third") })

	if h3 == h2 || h3 == h1 {
		t.Fatalf("handle %d reused (h1=%d, h2=%d)", h3, h1, h2)
	}
	if !el.Off(h2) {
		t.Fatal("Off(h2) removed nothing")
	}
	el.Trigger("change")
	if len(calls) != 1 || calls[0] != "third" {
		t.Errorf("calls = %v, want [third]", calls)
	}
}
