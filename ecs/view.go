package ecs

// View2 iterates the entities that own both a T1 and a T2 component,
// walking whichever pool is smaller and probing the other, so cost
// scales with the rarer component rather than with the total entity
// count.
func View2[T1, T2 any](r *Registry) func(yield func(Entity, *T1, *T2) bool) {
	p1 := poolFor[T1](r)
	p2 := poolFor[T2](r)
	small, large := p1.entities(), p2.entities()
	swapped := false
	if len(large) < len(small) {
		small, large = large, small
		swapped = true
	}
	_ = large // probed through p1.get/p2.get below, kept for documentation
	return func(yield func(Entity, *T1, *T2) bool) {
		for _, e := range small {
			c1 := p1.get(e)
			c2 := p2.get(e)
			if c1 == nil || c2 == nil {
				continue
			}
			if swapped {
				// small is p2's list; c1/c2 already line up by e.
			}
			if !yield(e, c1, c2) {
				return
			}
		}
	}
}

// View3 is View2 extended to three component types.
func View3[T1, T2, T3 any](r *Registry) func(yield func(Entity, *T1, *T2, *T3) bool) {
	pools := []anySet{poolFor[T1](r), poolFor[T2](r), poolFor[T3](r)}
	smallest := pools[0].entities()
	for _, p := range pools[1:] {
		if es := p.entities(); len(es) < len(smallest) {
			smallest = es
		}
	}
	p1 := poolFor[T1](r)
	p2 := poolFor[T2](r)
	p3 := poolFor[T3](r)
	return func(yield func(Entity, *T1, *T2, *T3) bool) {
		for _, e := range smallest {
			c1 := p1.get(e)
			c2 := p2.get(e)
			c3 := p3.get(e)
			if c1 == nil || c2 == nil || c3 == nil {
				continue
			}
			if !yield(e, c1, c2, c3) {
				return
			}
		}
	}
}
