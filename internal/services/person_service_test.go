package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
	"github.com/liamwears/reelcatalog/internal/store/memstore"
)

func newPersonServices(t *testing.T) (*memstore.Store, *memstore.Cache, *services.PersonService, *services.PersonService) {
	t.Helper()
	s := memstore.New()
	cache := memstore.NewCache(time.Minute)
	directors := services.NewPersonService(models.KindDirector, s.Directors(), cache, nil)
	actors := services.NewPersonService(models.KindActor, s.Actors(), cache, nil)
	return s, cache, directors, actors
}

func TestNewPersonService_UnknownKind(t *testing.T) {
	s := memstore.New()
	assert.Panics(t, func() {
		services.NewPersonService(models.PersonKind("writer"), s.Directors(), nil, nil)
	})
}

func TestPersonService_Create(t *testing.T) {
	_, cache, directors, _ := newPersonServices(t)

	person, err := directors.Create(context.Background(), models.CreatePersonInput{Name: " Greta Gerwig ", Country: "us"})
	require.NoError(t, err)

	assert.Equal(t, "Greta Gerwig", person.Name)
	assert.Equal(t, "US", person.Country)
	assert.Equal(t, 0, person.TotalMovies)
	assert.Equal(t, 1, cache.Clears())
}

func TestPersonService_CreateValidation(t *testing.T) {
	_, _, directors, actors := newPersonServices(t)
	ctx := context.Background()

	_, err := directors.Create(ctx, models.CreatePersonInput{Name: "Nobody", Country: "XX"})
	assert.Contains(t, fieldErrors(t, err), "country")

	_, err = directors.Create(ctx, models.CreatePersonInput{Country: "FR"})
	assert.Contains(t, fieldErrors(t, err)["name"], "This field is required.")

	_, err = directors.Create(ctx, models.CreatePersonInput{Name: "Agnès Varda", Country: "FR"})
	require.NoError(t, err)

	_, err = directors.Create(ctx, models.CreatePersonInput{Name: "agnès varda", Country: "FR"})
	assert.Equal(t, []string{"Director already exists"}, fieldErrors(t, err)["name"])

	// Uniqueness is per kind
	_, err = actors.Create(ctx, models.CreatePersonInput{Name: "Agnès Varda", Country: "FR"})
	require.NoError(t, err)
	_, err = actors.Create(ctx, models.CreatePersonInput{Name: "AGNÈS VARDA", Country: "FR"})
	assert.Equal(t, []string{"Actor already exists"}, fieldErrors(t, err)["name"])
}

func TestPersonService_Update(t *testing.T) {
	_, _, directors, _ := newPersonServices(t)
	ctx := context.Background()

	person, err := directors.Create(ctx, models.CreatePersonInput{Name: "Bong Joon-ho", Country: "KR"})
	require.NoError(t, err)
	_, err = directors.Create(ctx, models.CreatePersonInput{Name: "Park Chan-wook", Country: "KR"})
	require.NoError(t, err)

	updated, err := directors.Update(ctx, person.ID, models.UpdatePersonInput{Country: ptr("us")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Bong Joon-ho", updated.Name)
	assert.Equal(t, "US", updated.Country)

	_, err = directors.Update(ctx, person.ID, models.UpdatePersonInput{Name: ptr("Bong Joon-ho")}, false)
	assert.Contains(t, fieldErrors(t, err)["country"], "This field is required.")

	_, err = directors.Update(ctx, person.ID, models.UpdatePersonInput{Name: ptr("park chan-wook")}, true)
	assert.Contains(t, fieldErrors(t, err)["name"], "Director already exists")

	_, err = directors.Update(ctx, person.ID, models.UpdatePersonInput{Name: ptr("")}, true)
	assert.Contains(t, fieldErrors(t, err)["name"], "This field may not be blank.")

	_, err = directors.Update(ctx, 999, models.UpdatePersonInput{Name: ptr("X")}, true)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestPersonService_DeleteDirectorCascadesMovies(t *testing.T) {
	s, cache, directors, _ := newPersonServices(t)
	ctx := context.Background()

	director, err := directors.Create(ctx, models.CreatePersonInput{Name: "Hayao Miyazaki", Country: "JP"})
	require.NoError(t, err)
	movie, err := s.Movies().Create(ctx, &models.Movie{Title: "Spirited Away", DirectorID: director.ID})
	require.NoError(t, err)

	got, err := directors.Get(ctx, director.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalMovies)

	clears := cache.Clears()
	require.NoError(t, directors.Delete(ctx, director.ID))
	assert.Equal(t, clears+1, cache.Clears())

	_, err = s.Movies().Get(ctx, movie.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, directors.Delete(ctx, director.ID), services.ErrNotFound)
}

func TestPersonService_DeleteActorDetaches(t *testing.T) {
	s, _, directors, actors := newPersonServices(t)
	ctx := context.Background()

	director, err := directors.Create(ctx, models.CreatePersonInput{Name: "Céline Sciamma", Country: "FR"})
	require.NoError(t, err)
	actor, err := actors.Create(ctx, models.CreatePersonInput{Name: "Noémie Merlant", Country: "FR"})
	require.NoError(t, err)
	movie, err := s.Movies().Create(ctx, &models.Movie{Title: "Portrait of a Lady on Fire", DirectorID: director.ID})
	require.NoError(t, err)
	require.NoError(t, s.Movies().SetActors(ctx, movie.ID, []int64{actor.ID}))

	require.NoError(t, actors.Delete(ctx, actor.ID))

	got, err := s.Movies().Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Actors)
}
