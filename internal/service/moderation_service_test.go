package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestModeration_ProcessVerify(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewModerationService(db, zap.NewNop())
	u := seedUser(t, db, "학생")
	school := seedSchool(t, db, "7010004")
	v := &model.UserSchoolVerify{UserID: u.ID, SchoolID: school.ID, Grade: 1, Class: "2", Status: model.StatusPending}
	require.NoError(t, db.Create(v).Error)

	_, err := svc.ProcessVerify(ctx, 1, v.ID, "maybe", "")
	assertStatus(t, err, http.StatusBadRequest)
	_, err = svc.ProcessVerify(ctx, 1, 9999, model.StatusSuccess, "")
	assertStatus(t, err, http.StatusNotFound)

	out, err := svc.ProcessVerify(ctx, 1, v.ID, model.StatusSuccess, "확인됨")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.Equal(t, uint64(1), out.AdminID)

	var us model.UserSchool
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&us).Error)
	assert.Equal(t, school.ID, us.SchoolID)
	assert.Equal(t, 1, us.Grade)

	pending, err := svc.ListVerifies(ctx, model.StatusPending, 1)
	require.NoError(t, err)
	assert.Zero(t, pending.Total)
}

func TestModeration_DenyVerifyKeepsUserSchool(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewModerationService(db, zap.NewNop())
	u := seedUser(t, db, "학생")
	school := seedSchool(t, db, "7010005")
	v := &model.UserSchoolVerify{UserID: u.ID, SchoolID: school.ID, Grade: 3, Status: model.StatusPending}
	require.NoError(t, db.Create(v).Error)

	_, err := svc.ProcessVerify(ctx, 2, v.ID, model.StatusDeny, "사진 불일치")
	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Model(&model.UserSchool{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestModeration_BoardRequestCreatesBoard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boards := NewBoardService(db)
	svc := NewModerationService(db, zap.NewNop())
	u := seedUser(t, db, "신청자")

	br, err := boards.Request(ctx, u.ID, "연애상담", "고민 나누기")
	require.NoError(t, err)
	assert.Nil(t, br.SchoolID)

	var events []model.Outbox
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventModerationCreated, events[0].EventType)
	assert.Equal(t, br.ID, events[0].AggregateID)

	_, err = svc.ProcessBoardRequest(ctx, 1, br.ID, model.StatusSuccess, "")
	require.NoError(t, err)
	list, err := boards.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "연애상담", list[0].Name)

	_, err = svc.ProcessBoardRequest(ctx, 1, 9999, model.StatusDeny, "")
	assertStatus(t, err, http.StatusNotFound)
}

func TestModeration_Admins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewModerationService(db, zap.NewNop())

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "root", "rootpass"))
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "root", "other"))
	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	created, err := svc.CreateAdmin(ctx, "mod", "modpass", "모더", model.PermReport)
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "mod", "modpass", "모더", model.PermReport)
	assertStatus(t, err, http.StatusConflict)

	admin, err := svc.Admin(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, admin.Can(model.PermReport))
	assert.False(t, admin.Can(model.PermAd))

	_, err = svc.Admin(ctx, 9999)
	assertStatus(t, err, http.StatusUnauthorized)
}
