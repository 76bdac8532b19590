package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amalajeun/internal/model"
	"amalajeun/internal/utils"
)

func completeDraft() model.Draft {
	lat, lng := 6.4969, 3.3561
	return model.Draft{
		Name:        str("Mama Jude"),
		Address:     str("Akerele Road"),
		Latitude:    &lat,
		Longitude:   &lng,
		OpeningTime: str("09:00"),
		ClosingTime: str("21:00"),
		Price:       f64(4000),
		DineIn:      boolp(true),
	}
}

func TestSubmitContractRejectsIncompleteDraft(t *testing.T) {
	contract := NewSubmitContract(&fakeCreator{}, utils.NewLogger())

	draft := completeDraft()
	draft.Address = nil

	_, err := contract.Execute(context.Background(), draft, testSession())
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestSubmitContractRejectsOutOfRangeValues(t *testing.T) {
	contract := NewSubmitContract(&fakeCreator{}, utils.NewLogger())

	draft := completeDraft()
	draft.Price = f64(-1)
	_, err := contract.Execute(context.Background(), draft, testSession())
	assert.ErrorIs(t, err, ErrIncompleteDraft)

	draft = completeDraft()
	draft.Latitude = f64(91)
	_, err = contract.Execute(context.Background(), draft, testSession())
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestSubmitContractInjectsSessionAndDefaults(t *testing.T) {
	creator := &fakeCreator{}
	contract := NewSubmitContract(creator, utils.NewLogger())

	draft := completeDraft()
	draft.OpeningTime = str("whenever")
	draft.ClosingTime = str("")

	spot, err := contract.Execute(context.Background(), draft, testSession())
	require.NoError(t, err)
	assert.Equal(t, "user-42", spot.UserID)
	assert.Equal(t, "Tunde", spot.AddedBy)
	assert.Equal(t, model.StatusPending, spot.Status)
	assert.False(t, spot.Verified)

	require.NotNil(t, creator.lastReq)
	assert.Equal(t, DefaultOpeningTime, creator.lastReq.OpeningTime)
	assert.Equal(t, DefaultClosingTime, creator.lastReq.ClosingTime)
	assert.Equal(t, string(model.SourceUser), creator.lastReq.Source)
}

func TestSubmitContractWrapsCreateFailure(t *testing.T) {
	creator := &fakeCreator{errs: []error{errors.New("boom")}}
	contract := NewSubmitContract(creator, utils.NewLogger())

	_, err := contract.Execute(context.Background(), completeDraft(), testSession())
	require.Error(t, err)

	var failure *SubmissionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "the spot could not be saved right now", failure.Reason)
	assert.NotContains(t, failure.Reason, "boom")
}

func TestSpotsClientCreate(t *testing.T) {
	var gotAuth string
	var gotBody model.CreateSpotRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/spots", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"spot": model.Spot{
				ID:      "spot-1",
				Name:    gotBody.Name,
				Address: gotBody.Address,
			},
		})
	}))
	defer srv.Close()

	client := NewSpotsClient(srv.URL, 5*time.Second, utils.NewLogger())
	req := &model.CreateSpotRequest{
		Name:    "Mama Jude",
		Address: "Akerele Road",
		Price:   4000,
	}

	spot, err := client.Create(context.Background(), req, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "spot-1", spot.ID)
	assert.Equal(t, "Mama Jude", spot.Name)
	assert.Equal(t, "Bearer token-abc", gotAuth)
}

func TestSpotsClientCreateNon201(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid access token"}`))
	}))
	defer srv.Close()

	client := NewSpotsClient(srv.URL, 5*time.Second, utils.NewLogger())
	_, err := client.Create(context.Background(), &model.CreateSpotRequest{}, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

// The create path must never retry on its own: a duplicated request could
// put the same spot on the map twice.
func TestSpotsClientCreateDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewSpotsClient(srv.URL, 5*time.Second, utils.NewLogger())
	_, err := client.Create(context.Background(), &model.CreateSpotRequest{}, "token")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSpotsClientListRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"spots": []model.Spot{{ID: "a"}, {ID: "b"}},
			"total": 2,
		})
	}))
	defer srv.Close()

	client := NewSpotsClient(srv.URL, 5*time.Second, utils.NewLogger())
	spots, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, spots, 2)
	assert.Equal(t, int32(2), hits.Load())
}
