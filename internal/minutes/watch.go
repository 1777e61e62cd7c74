package minutes

// Watch registers a sign-off status subscriber and returns its id with the
// delivery channel. Every successful Confirm fans the fresh Status out to all
// watchers; a slow watcher drops updates instead of blocking the confirmer.
func (r *Room) Watch() (int, <-chan Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.watcherID++
	id := r.watcherID
	ch := make(chan Status, 4)
	r.watchers[id] = ch
	return id, ch
}

func (r *Room) Unwatch(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.watchers[id]; ok {
		delete(r.watchers, id)
		close(ch)
	}
}

func (r *Room) broadcast(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.watchers {
		select {
		case ch <- status:
		default:
		}
	}
}
