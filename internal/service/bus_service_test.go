package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTransit struct {
	stopCalls int
	lat, lng  float64
	err       error
}

func (f *fakeTransit) NearbyStops(_ context.Context, lat, lng float64) ([]client.BusStop, error) {
	f.stopCalls++
	f.lat, f.lng = lat, lng
	return []client.BusStop{{CityCode: 25, NodeID: "DJB8001793", NodeName: "학교앞"}}, nil
}

func (f *fakeTransit) Arrivals(context.Context, string, string) ([]client.BusArrival, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []client.BusArrival{{RouteID: "R1", ArrivalSec: 120}}, nil
}

func TestBus_StopsFromSchoolLocation(t *testing.T) {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	transit := &fakeTransit{}
	svc := NewBusService(db, rdb, transit, zap.NewNop())
	ctx := context.Background()
	u := seedUser(t, db, "통학생")

	_, err := svc.Stops(ctx, u.ID, nil, nil)
	assertStatus(t, err, http.StatusBadRequest)

	school := seedSchool(t, db, "7010010")
	enroll(t, db, u.ID, school.ID)
	_, err = svc.Stops(ctx, u.ID, nil, nil)
	assertStatus(t, err, http.StatusBadRequest)

	require.NoError(t, db.Model(school).Updates(map[string]any{"lat": 36.35, "lng": 127.38}).Error)
	for i := 0; i < 2; i++ {
		stops, err := svc.Stops(ctx, u.ID, nil, nil)
		require.NoError(t, err)
		require.Len(t, stops, 1)
		assert.Equal(t, "학교앞", stops[0].NodeName)
	}
	assert.Equal(t, 1, transit.stopCalls)
	assert.Equal(t, 36.35, transit.lat)

	lat, lng := 37.1, 127.1
	_, err = svc.Stops(ctx, u.ID, &lat, &lng)
	require.NoError(t, err)
	assert.Equal(t, 2, transit.stopCalls)
}

func TestBus_Arrivals(t *testing.T) {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	transit := &fakeTransit{}
	svc := NewBusService(db, rdb, transit, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Arrivals(ctx, "", "node")
	assertStatus(t, err, http.StatusBadRequest)

	list, err := svc.Arrivals(ctx, "25", "DJB8001793")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	transit.err = assert.AnError
	_, err = svc.Arrivals(ctx, "25", "DJB8001793")
	assertStatus(t, err, http.StatusBadGateway)
}
