package services

import "time"

func (s *MovieService) SetClock(now func() time.Time) { s.now = now }

func (s *TokenService) SetClock(now func() time.Time) { s.now = now }

var ReleaseYear = releaseYear
