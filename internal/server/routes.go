package server

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Post("/verify_location", s.handleVerifyLocation)
	s.router.Post("/mark_attendance", s.handleMarkAttendance)
	s.router.Post("/recognize_face", s.handleMarkAttendance) // legacy alias
	s.router.Get("/attendance_records", s.handleAttendanceRecords)
	s.router.Post("/enroll", s.handleEnroll)
}
