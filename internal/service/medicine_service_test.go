package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/internal/domain/medicine"
	"github.com/curaflow/curaflow-api/internal/domain/prescription"
)

func newMedicineFixture(t *testing.T, repo *medicineRepoMock) *MedicineService {
	t.Helper()
	auditSvc := NewAuditService(auditRepoStub{}, testCollector, zap.NewNop())
	t.Cleanup(auditSvc.Shutdown)
	return NewMedicineService(repo, auditSvc, zap.NewNop())
}

func TestCheckAvailability(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	repo := &medicineRepoMock{
		getByIDsFn: func(_ context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
			assert.Equal(t, []uuid.UUID{medID}, ids)
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Amoxicillin", Stock: 10}}, nil
		},
	}
	svc := newMedicineFixture(t, repo)

	lines := []prescription.Line{
		{MedicineID: medID, Quantity: "4", Repetition: prescription.Repetition{Morning: true}},
		{MedicineID: medID, Quantity: "3", Repetition: prescription.Repetition{Evening: true}},
	}

	got, err := svc.CheckAvailability(context.Background(), lines, doctorID, "doctor")

	assert.NoError(t, err)
	if assert.Len(t, got, 2) {
		assert.Equal(t, 7, got[0].DisplayStock)
		assert.Equal(t, 6, got[1].DisplayStock)
		assert.False(t, got[0].Depleted)
		assert.False(t, got[1].Depleted)
	}
}

func TestCheckAvailability_DepletedMedicine(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	repo := &medicineRepoMock{
		getByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Ibuprofen", Stock: 3}}, nil
		},
	}
	svc := newMedicineFixture(t, repo)

	lines := []prescription.Line{
		{MedicineID: medID, Quantity: "5", Repetition: prescription.Repetition{Morning: true}},
	}

	got, err := svc.CheckAvailability(context.Background(), lines, doctorID, "doctor")

	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		// Own reservation is excluded, so the line still shows the full
		// authoritative stock.
		assert.Equal(t, 3, got[0].DisplayStock)
		assert.False(t, got[0].Depleted)
	}
}

func TestCheckAvailability_DeletedMedicineShowsZero(t *testing.T) {
	doctorID := uuid.New()
	repo := &medicineRepoMock{
		getByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			// Medicine no longer exists; the line keeps its snapshot name.
			return nil, nil
		},
	}
	svc := newMedicineFixture(t, repo)

	lines := []prescription.Line{
		{MedicineID: uuid.New(), MedicineName: "Discontinued", Quantity: "2", Repetition: prescription.Repetition{Morning: true}},
	}

	got, err := svc.CheckAvailability(context.Background(), lines, doctorID, "doctor")

	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, 0, got[0].DisplayStock)
		assert.True(t, got[0].Depleted)
	}
}

func TestCheckAvailability_OtherDoctorsMedicineForbidden(t *testing.T) {
	owner := uuid.New()
	medID := uuid.New()
	repo := &medicineRepoMock{
		getByIDsFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			return []*medicine.Medicine{{ID: medID, DoctorID: owner, Name: "Amoxicillin", Stock: 10}}, nil
		},
	}
	svc := newMedicineFixture(t, repo)

	lines := []prescription.Line{
		{MedicineID: medID, Quantity: "1", Repetition: prescription.Repetition{Morning: true}},
	}

	_, err := svc.CheckAvailability(context.Background(), lines, uuid.New(), "doctor")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateMedicine_Validation(t *testing.T) {
	doctorID := uuid.New()
	svc := newMedicineFixture(t, &medicineRepoMock{})

	_, err := svc.CreateMedicine(context.Background(), &medicine.CreateMedicineCommand{
		DoctorID: doctorID,
		Name:     "   ",
		Stock:    5,
	}, doctorID, "doctor", "127.0.0.1")
	assert.ErrorIs(t, err, medicine.ErrNameRequired)

	_, err = svc.CreateMedicine(context.Background(), &medicine.CreateMedicineCommand{
		DoctorID: doctorID,
		Name:     "Amoxicillin",
		Stock:    -1,
	}, doctorID, "doctor", "127.0.0.1")
	assert.ErrorIs(t, err, medicine.ErrNegativeStock)

	_, err = svc.CreateMedicine(context.Background(), &medicine.CreateMedicineCommand{
		DoctorID: doctorID,
		Name:     "Amoxicillin",
		Stock:    5,
	}, doctorID, "patient", "127.0.0.1")
	assert.ErrorIs(t, err, ErrForbidden)
}
