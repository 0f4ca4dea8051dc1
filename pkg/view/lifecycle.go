package view

// The attach and detach cascades travel parent to child: a composite's
// structural children receive before:attach and attach ahead of the
// composite itself. Hosts (regions and collection views) decide whether a
// transition should fire at all and wrap the DOM operation with these calls.

// TriggerBeforeAttach fires before:attach on v's detached descendants, then
// on v.
func TriggerBeforeAttach(v Instance) {
	v.VisitChildren(func(c Instance) bool {
		if !c.IsAttached() && !c.IsDestroyed() {
			TriggerBeforeAttach(c)
		}
		return true
	})
	v.Trigger(BeforeAttach, Args{View: v})
}

// MarkAttached flags v and its detached descendants as attached and fires
// attach on each, children first. Destroyed or already attached views are
// skipped.
func MarkAttached(v Instance) {
	b := v.lifecycle()
	if b.attached || b.destroyed {
		return
	}
	v.VisitChildren(func(c Instance) bool {
		if !c.IsAttached() {
			MarkAttached(c)
		}
		return true
	})
	b.attached = true
	v.Trigger(Attach, Args{View: v})
	if b.rendered {
		v.Trigger(DOMRefresh, Args{View: v})
	}
}

// TriggerBeforeDetach fires before:detach on v's attached descendants, then
// on v.
func TriggerBeforeDetach(v Instance) {
	v.VisitChildren(func(c Instance) bool {
		if c.IsAttached() {
			TriggerBeforeDetach(c)
		}
		return true
	})
	v.Trigger(BeforeDetach, Args{View: v})
	if v.IsRendered() {
		v.Trigger(DOMRemove, Args{View: v})
	}
}

// MarkDetached clears the attached flag of v and its descendants and fires
// detach on each, children first. Views that are not attached are skipped.
func MarkDetached(v Instance) {
	b := v.lifecycle()
	if !b.attached {
		return
	}
	v.VisitChildren(func(c Instance) bool {
		if c.IsAttached() {
			MarkDetached(c)
		}
		return true
	})
	b.attached = false
	v.Trigger(Detach, Args{View: v})
}

// AttachWith runs insert, wrapping it in the attach cascade when notify is
// true and v is not attached yet.
func AttachWith(v Instance, notify bool, insert func()) {
	notify = notify && !v.IsAttached() && !v.IsDestroyed()
	if notify {
		TriggerBeforeAttach(v)
	}
	insert()
	if notify {
		MarkAttached(v)
	}
}

// DetachWith runs remove, wrapping it in the detach cascade when v is
// attached.
func DetachWith(v Instance, remove func()) {
	notify := v.IsAttached()
	if notify {
		TriggerBeforeDetach(v)
	}
	remove()
	if notify {
		MarkDetached(v)
	}
}

// SetShown records whether a host currently owns v.
func SetShown(v Instance, shown bool) {
	v.lifecycle().shown = shown
}

// RenderView renders v unless it is already rendered. Views that do not
// support the render lifecycle get before:render and render fired around
// the call.
func RenderView(v Instance) error {
	if v.IsRendered() {
		return nil
	}
	native := v.SupportsRenderLifecycle()
	if !native {
		v.Trigger(BeforeRender, Args{View: v})
	}
	if err := v.Render(); err != nil {
		return err
	}
	if !native {
		v.lifecycle().rendered = true
		v.Trigger(Render, Args{View: v})
	}
	return nil
}

// DestroyView destroys v unless it is already destroyed.
func DestroyView(v Instance) {
	if v == nil || v.IsDestroyed() {
		return
	}
	v.Destroy()
}

// ProxyChildEvents re-emits every event of child on parent in its
// childview: form, with Args.Child set to child. Events that are already
// bubbled are not forwarded again. The returned function stops proxying.
func ProxyChildEvents(parent Observable, child Instance) func() {
	return child.OnAny(func(ev Event, args Args) {
		if ev.IsChildView() {
			return
		}
		args.Child = child
		parent.Trigger(ev.ChildView(), args)
	})
}
