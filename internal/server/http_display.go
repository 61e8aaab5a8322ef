package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                        - Health check")
	fmt.Println("  GET    /stats                         - Server statistics")
	fmt.Println("  GET    /api/v1/insights/{industry}    - Cached industry insight")
	fmt.Println("  DELETE /api/v1/insights/{industry}    - Invalidate an insight")
	fmt.Println("  POST   /api/v1/extract                - Extract and validate model output")
	fmt.Println("  PUT    /api/v1/profile                - Onboard (owner)")
	fmt.Println("  POST   /api/v1/quiz                   - Generate a quiz (owner)")
	fmt.Println("  POST   /api/v1/quiz/results           - Save quiz answers (owner)")
	fmt.Println("  POST   /api/v1/interview              - Generate interview questions (owner)")
	fmt.Println("  POST   /api/v1/interview/evaluate     - Rate one answer (owner)")
	fmt.Println("  POST   /api/v1/interview/results      - Save an interview (owner)")
	fmt.Println("  GET    /api/v1/assessments[/stats]    - Assessment history (owner)")
	fmt.Println("  POST   /api/v1/resume/analyze         - Cached résumé analysis")
	fmt.Println("  PUT    /api/v1/resume                 - Save résumé (owner)")
	fmt.Println("  POST   /api/v1/resume/improve         - Rewrite a section (owner)")
	fmt.Println("  *      /api/v1/cover-letters[/{id}]   - Cover letters (owner)")
}

// displayAuthInfo shows authentication and ownership requirements
func (s *Server) displayAuthInfo() {
	if n := s.APIKeys.Len(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' header in /api/v1 requests")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
	fmt.Println("Owner-scoped endpoints require the 'X-Owner-ID' header")
}

// displayRequestLimitInfo shows request size limit configuration.
// The limit also bounds the text POST /api/v1/extract will scan.
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
