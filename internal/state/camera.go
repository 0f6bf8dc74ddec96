package state

// Camera returns the current view transform.
func (s *Store) Camera() Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// ZoomIn multiplies the zoom by ZoomStep, up to MaxZoom. Pan is unchanged.
func (s *Store) ZoomIn() float64 {
	return s.scaleZoom(func(z float64) float64 { return z * ZoomStep })
}

// ZoomOut divides the zoom by ZoomStep, down to MinZoom. Pan is unchanged.
func (s *Store) ZoomOut() float64 {
	return s.scaleZoom(func(z float64) float64 { return z / ZoomStep })
}

func (s *Store) scaleZoom(f func(float64) float64) float64 {
	s.mu.Lock()
	s.camera.Zoom = clampZoom(f(s.camera.Zoom))
	z := s.camera.Zoom
	notify := s.commit(OpCamera, "")
	s.mu.Unlock()

	notify()
	return z
}

// Pan moves the view by (dx, dy) screen units.
func (s *Store) Pan(dx, dy float64) {
	s.mu.Lock()
	s.camera.X += dx
	s.camera.Y += dy
	notify := s.commit(OpCamera, "")
	s.mu.Unlock()

	notify()
}

// ResetView returns to the identity camera.
func (s *Store) ResetView() {
	s.mu.Lock()
	s.camera = DefaultCamera()
	notify := s.commit(OpCamera, "")
	s.mu.Unlock()

	notify()
}
