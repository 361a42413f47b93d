package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
)

func seed(t *testing.T, s *Store) (director, actor *models.Person, movie *models.Movie) {
	t.Helper()
	ctx := context.Background()

	director, err := s.Directors().Create(ctx, &models.Person{Name: "Christopher Nolan", Country: "GB"})
	require.NoError(t, err)
	actor, err = s.Actors().Create(ctx, &models.Person{Name: "Leonardo DiCaprio", Country: "US"})
	require.NoError(t, err)

	movie, err = s.Movies().Create(ctx, &models.Movie{Title: "Inception", Genres: []string{"Action"}, DirectorID: director.ID})
	require.NoError(t, err)
	require.NoError(t, s.Movies().SetActors(ctx, movie.ID, []int64{actor.ID}))
	return director, actor, movie
}

func TestMovieStore_GetHydratesRelations(t *testing.T) {
	s := New()
	director, actor, movie := seed(t, s)

	got, err := s.Movies().Get(context.Background(), movie.ID)
	require.NoError(t, err)

	require.NotNil(t, got.Director)
	assert.Equal(t, director.ID, got.Director.ID)
	assert.Equal(t, 1, got.Director.TotalMovies)
	require.Len(t, got.Actors, 1)
	assert.Equal(t, actor.ID, got.Actors[0].ID)
	assert.Equal(t, 1, got.Actors[0].TotalMovies)
}

func TestMovieStore_TitleUniqueCaseInsensitive(t *testing.T) {
	s := New()
	director, _, movie := seed(t, s)
	ctx := context.Background()

	taken, err := s.Movies().TitleTaken(ctx, "INCEPTION", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.Movies().TitleTaken(ctx, "inception", movie.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = s.Movies().Create(ctx, &models.Movie{Title: "inception", DirectorID: director.ID})
	assert.ErrorIs(t, err, services.ErrDuplicate)
}

func TestPersonStore_DeleteDirectorCascades(t *testing.T) {
	s := New()
	director, actor, movie := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Directors().Delete(ctx, director.ID))

	_, err := s.Movies().Get(ctx, movie.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	a, err := s.Actors().Get(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, a.TotalMovies)
}

func TestPersonStore_DeleteActorDetaches(t *testing.T) {
	s := New()
	_, actor, movie := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Actors().Delete(ctx, actor.ID))

	got, err := s.Movies().Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Actors)
}

func TestPersonStore_MissingIDs(t *testing.T) {
	s := New()
	_, actor, _ := seed(t, s)

	missing, err := s.Actors().MissingIDs(context.Background(), []int64{actor.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, []int64{999}, missing)
}

func TestRevocations_RevokeOnce(t *testing.T) {
	r := NewRevocations()
	ctx := context.Background()

	first, err := r.Revoke(ctx, "jti", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := r.Revoke(ctx, "jti", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	now := time.Now().Add(2 * time.Minute)
	r.now = func() time.Time { return now }
	expired, err := r.Revoke(ctx, "jti", time.Minute)
	require.NoError(t, err)
	assert.True(t, expired, "revocations expire with the token")
}

func TestCache_ClearBumpsGeneration(t *testing.T) {
	c := NewCache(time.Minute)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	require.NoError(t, c.Clear(ctx))

	next, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
