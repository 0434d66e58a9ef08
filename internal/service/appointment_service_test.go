package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/internal/domain"
	"github.com/curaflow/curaflow-api/internal/domain/appointment"
	"github.com/curaflow/curaflow-api/internal/domain/medicine"
	"github.com/curaflow/curaflow-api/internal/domain/patient"
	"github.com/curaflow/curaflow-api/internal/domain/prescription"
	"github.com/curaflow/curaflow-api/pkg/metrics"
)

// The collector registers with the default prometheus registry, so tests
// share a single instance.
var testCollector = metrics.NewCollector("curaflow_test")

type appointmentRepoMock struct {
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	getByIDForUpdateFn func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	saveFn             func(ctx context.Context, a *appointment.Appointment) error
	updateStatusFn     func(ctx context.Context, a *appointment.Appointment) error
}

var _ appointment.Repository = (*appointmentRepoMock)(nil)

func (m *appointmentRepoMock) Create(context.Context, *appointment.Appointment) error {
	return errors.New("not implemented")
}

func (m *appointmentRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return m.getByIDFn(ctx, id)
}

func (m *appointmentRepoMock) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return m.getByIDForUpdateFn(ctx, id)
}

func (m *appointmentRepoMock) Update(context.Context, uuid.UUID, *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	return nil, errors.New("not implemented")
}

func (m *appointmentRepoMock) Save(ctx context.Context, a *appointment.Appointment) error {
	return m.saveFn(ctx, a)
}

func (m *appointmentRepoMock) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	return m.updateStatusFn(ctx, a)
}

func (m *appointmentRepoMock) List(context.Context, *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	return nil, errors.New("not implemented")
}

type medicineRepoMock struct {
	getByIDsFn          func(ctx context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error)
	getByIDsForUpdateFn func(ctx context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error)
	saveStockFn         func(ctx context.Context, m *medicine.Medicine) error
}

var _ medicine.Repository = (*medicineRepoMock)(nil)

func (m *medicineRepoMock) Create(context.Context, *medicine.Medicine) error {
	return errors.New("not implemented")
}

func (m *medicineRepoMock) GetByID(context.Context, uuid.UUID) (*medicine.Medicine, error) {
	return nil, errors.New("not implemented")
}

func (m *medicineRepoMock) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
	return m.getByIDsFn(ctx, ids)
}

func (m *medicineRepoMock) GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
	return m.getByIDsForUpdateFn(ctx, ids)
}

func (m *medicineRepoMock) Update(context.Context, uuid.UUID, *medicine.UpdateMedicineCommand) (*medicine.Medicine, error) {
	return nil, errors.New("not implemented")
}

func (m *medicineRepoMock) SaveStock(ctx context.Context, med *medicine.Medicine) error {
	return m.saveStockFn(ctx, med)
}

func (m *medicineRepoMock) SoftDelete(context.Context, uuid.UUID) error {
	return errors.New("not implemented")
}

func (m *medicineRepoMock) List(context.Context, *medicine.ListMedicinesQuery) (*medicine.PagedMedicines, error) {
	return nil, errors.New("not implemented")
}

type patientRepoMock struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

var _ patient.Repository = (*patientRepoMock)(nil)

func (m *patientRepoMock) Create(context.Context, *patient.Patient) error {
	return errors.New("not implemented")
}

func (m *patientRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return m.getByIDFn(ctx, id)
}

func (m *patientRepoMock) Update(context.Context, uuid.UUID, *patient.UpdatePatientCommand) (*patient.Patient, error) {
	return nil, errors.New("not implemented")
}

func (m *patientRepoMock) SoftDelete(context.Context, uuid.UUID) error {
	return errors.New("not implemented")
}

func (m *patientRepoMock) List(context.Context, *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	return nil, errors.New("not implemented")
}

// fakeUnitOfWork runs the batch against the mock repositories without a real
// transaction; tests assert rollback by checking which writes were attempted.
type fakeUnitOfWork struct {
	repos TxRepos
}

var _ UnitOfWork = (*fakeUnitOfWork)(nil)

func (f *fakeUnitOfWork) Do(_ context.Context, fn func(tx TxRepos) error) error {
	return fn(f.repos)
}

type auditRepoStub struct{}

func (auditRepoStub) Create(context.Context, *domain.AuditLog) error { return nil }

type capturingDeliverer struct {
	delivered []Notification
}

func (d *capturingDeliverer) Deliver(_ context.Context, n Notification) error {
	d.delivered = append(d.delivered, n)
	return nil
}

type completionFixture struct {
	svc       *AppointmentService
	notifySvc *NotifyService
	auditSvc  *AuditService
	deliverer *capturingDeliverer
}

func newCompletionFixture(t *testing.T, apptRepo *appointmentRepoMock, medRepo *medicineRepoMock, cfg medicine.AlertConfig) *completionFixture {
	t.Helper()
	log := zap.NewNop()
	deliverer := &capturingDeliverer{}
	notifySvc := NewNotifyService(deliverer, testCollector, log)
	auditSvc := NewAuditService(auditRepoStub{}, testCollector, log)
	uow := &fakeUnitOfWork{repos: TxRepos{Appointments: apptRepo, Medicines: medRepo}}

	svc := NewAppointmentService(
		apptRepo,
		&patientRepoMock{},
		uow,
		notifySvc,
		auditSvc,
		testCollector,
		cfg,
		log,
	)
	t.Cleanup(func() {
		notifySvc.Shutdown()
		auditSvc.Shutdown()
	})
	return &completionFixture{svc: svc, notifySvc: notifySvc, auditSvc: auditSvc, deliverer: deliverer}
}

func scheduledAppointment(doctorID uuid.UUID) *appointment.Appointment {
	return &appointment.Appointment{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		Status:    appointment.StatusScheduled,
	}
}

func line(medID uuid.UUID, name, qty string) prescription.Line {
	return prescription.Line{
		MedicineID:   medID,
		MedicineName: name,
		Quantity:     qty,
		Repetition:   prescription.Repetition{Morning: true},
	}
}

func TestCompleteAppointment_DecrementsStock(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)

	var savedStock *int
	var savedAppt *appointment.Appointment

	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			assert.Equal(t, appt.ID, id)
			return appt, nil
		},
		saveFn: func(_ context.Context, a *appointment.Appointment) error {
			savedAppt = a
			return nil
		},
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
			assert.Equal(t, []uuid.UUID{medID}, ids)
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Amoxicillin", Stock: 8}}, nil
		},
		saveStockFn: func(_ context.Context, m *medicine.Medicine) error {
			s := m.Stock
			savedStock = &s
			return nil
		},
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: false})

	got, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		DoctorRemarks: "responding well",
		Prescriptions: []prescription.Line{line(medID, "Amoxicillin", "3")},
		CompletedBy:   doctorID,
	}, doctorID, "doctor", "127.0.0.1")

	assert.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	if assert.NotNil(t, savedStock) {
		assert.Equal(t, 5, *savedStock)
	}
	if assert.NotNil(t, savedAppt) {
		assert.Len(t, savedAppt.Prescriptions, 1)
		assert.Equal(t, "responding well", savedAppt.DoctorRemarks)
	}
}

func TestCompleteAppointment_SharedMedicineDecrementedOnce(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)

	saveStockCalls := 0
	var savedStock int

	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
		saveFn: func(_ context.Context, _ *appointment.Appointment) error { return nil },
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
			assert.Len(t, ids, 1)
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Ibuprofen", Stock: 10}}, nil
		},
		saveStockFn: func(_ context.Context, m *medicine.Medicine) error {
			saveStockCalls++
			savedStock = m.Stock
			return nil
		},
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: false})

	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		Prescriptions: []prescription.Line{
			line(medID, "Ibuprofen", "4"),
			line(medID, "Ibuprofen", "3"),
		},
		CompletedBy: doctorID,
	}, doctorID, "doctor", "127.0.0.1")

	assert.NoError(t, err)
	// Two lines referencing the same medicine are summed into one write.
	assert.Equal(t, 1, saveStockCalls)
	assert.Equal(t, 3, savedStock)
}

func TestCompleteAppointment_ClampsStockAtZero(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)

	var savedStock int
	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
		saveFn: func(_ context.Context, _ *appointment.Appointment) error { return nil },
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Paracetamol", Stock: 2}}, nil
		},
		saveStockFn: func(_ context.Context, m *medicine.Medicine) error {
			savedStock = m.Stock
			return nil
		},
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: false})

	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		Prescriptions: []prescription.Line{line(medID, "Paracetamol", "10")},
		CompletedBy:   doctorID,
	}, doctorID, "doctor", "127.0.0.1")

	assert.NoError(t, err)
	assert.Equal(t, 0, savedStock)
}

func TestCompleteAppointment_TerminalResubmitSkipsDecrement(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)
	assert.NoError(t, appt.Complete())

	medicinesTouched := false
	var savedAppt *appointment.Appointment

	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
		saveFn: func(_ context.Context, a *appointment.Appointment) error {
			savedAppt = a
			return nil
		},
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			medicinesTouched = true
			return nil, nil
		},
		saveStockFn: func(_ context.Context, _ *medicine.Medicine) error {
			medicinesTouched = true
			return nil
		},
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: true})

	got, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		DoctorRemarks: "amended remarks",
		Prescriptions: []prescription.Line{line(medID, "Amoxicillin", "3")},
		CompletedBy:   doctorID,
	}, doctorID, "doctor", "127.0.0.1")

	// Resubmitting a terminal appointment is a plain field update: the status
	// is unchanged and stock is never touched again.
	assert.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, got.Status)
	assert.False(t, medicinesTouched)
	if assert.NotNil(t, savedAppt) {
		assert.Equal(t, "amended remarks", savedAppt.DoctorRemarks)
	}
}

func TestCompleteAppointment_StockWriteFailureAbortsBatch(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)

	apptSaved := false
	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
		saveFn: func(_ context.Context, _ *appointment.Appointment) error {
			apptSaved = true
			return nil
		},
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Amoxicillin", Stock: 8}}, nil
		},
		saveStockFn: func(_ context.Context, _ *medicine.Medicine) error {
			return errors.New("write conflict")
		},
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: true})

	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		Prescriptions: []prescription.Line{line(medID, "Amoxicillin", "3")},
		CompletedBy:   doctorID,
	}, doctorID, "doctor", "127.0.0.1")

	assert.Error(t, err)
	// The appointment write comes after the stock writes; a failed batch
	// never reaches it.
	assert.False(t, apptSaved)
	assert.Empty(t, fix.deliverer.delivered)
}

func TestCompleteAppointment_UnparseableQuantitiesContributeNothing(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)

	stockWritten := false
	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
		saveFn: func(_ context.Context, _ *appointment.Appointment) error { return nil },
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
			assert.Empty(t, ids)
			return nil, nil
		},
		saveStockFn: func(_ context.Context, _ *medicine.Medicine) error {
			stockWritten = true
			return nil
		},
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: true})

	got, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		Prescriptions: []prescription.Line{line(medID, "Amoxicillin", "as needed")},
		CompletedBy:   doctorID,
	}, doctorID, "doctor", "127.0.0.1")

	// The completion itself still succeeds; the line just contributes no
	// stock decrement.
	assert.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, got.Status)
	assert.False(t, stockWritten)
}

func TestCompleteAppointment_LowStockAlertFires(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)

	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
		saveFn: func(_ context.Context, _ *appointment.Appointment) error { return nil },
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Amoxicillin", Stock: 6}}, nil
		},
		saveStockFn: func(_ context.Context, _ *medicine.Medicine) error { return nil },
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: true})

	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		Prescriptions: []prescription.Line{line(medID, "Amoxicillin", "3")},
		CompletedBy:   doctorID,
	}, doctorID, "doctor", "127.0.0.1")
	assert.NoError(t, err)

	// Drain the async delivery queue before asserting.
	fix.notifySvc.Shutdown()

	if assert.Len(t, fix.deliverer.delivered, 1) {
		n := fix.deliverer.delivered[0]
		assert.Equal(t, SeverityWarning, n.Severity)
		assert.Contains(t, n.Message, "Amoxicillin")
		assert.Contains(t, n.Message, "3")
	}
}

func TestCompleteAppointment_AlertsDisabled(t *testing.T) {
	doctorID := uuid.New()
	medID := uuid.New()
	appt := scheduledAppointment(doctorID)

	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
		saveFn: func(_ context.Context, _ *appointment.Appointment) error { return nil },
	}
	medRepo := &medicineRepoMock{
		getByIDsForUpdateFn: func(_ context.Context, _ []uuid.UUID) ([]*medicine.Medicine, error) {
			return []*medicine.Medicine{{ID: medID, DoctorID: doctorID, Name: "Amoxicillin", Stock: 3}}, nil
		},
		saveStockFn: func(_ context.Context, _ *medicine.Medicine) error { return nil },
	}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: false})

	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		Prescriptions: []prescription.Line{line(medID, "Amoxicillin", "3")},
		CompletedBy:   doctorID,
	}, doctorID, "doctor", "127.0.0.1")
	assert.NoError(t, err)

	fix.notifySvc.Shutdown()
	assert.Empty(t, fix.deliverer.delivered)
}

func TestCompleteAppointment_PatientForbidden(t *testing.T) {
	doctorID := uuid.New()
	appt := scheduledAppointment(doctorID)

	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
	}
	medRepo := &medicineRepoMock{}
	fix := newCompletionFixture(t, apptRepo, medRepo, medicine.AlertConfig{Threshold: 5, Enabled: true})

	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		CompletedBy: uuid.New(),
	}, uuid.New(), "patient", "127.0.0.1")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCompleteAppointment_OtherDoctorForbidden(t *testing.T) {
	doctorID := uuid.New()
	appt := scheduledAppointment(doctorID)

	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			return appt, nil
		},
	}
	fix := newCompletionFixture(t, apptRepo, &medicineRepoMock{}, medicine.AlertConfig{Threshold: 5, Enabled: true})

	otherDoctor := uuid.New()
	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		CompletedBy: otherDoctor,
	}, otherDoctor, "doctor", "127.0.0.1")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCompleteAppointment_InvalidLineRejectedBeforeTransaction(t *testing.T) {
	doctorID := uuid.New()
	appt := scheduledAppointment(doctorID)

	txEntered := false
	apptRepo := &appointmentRepoMock{
		getByIDForUpdateFn: func(_ context.Context, _ uuid.UUID) (*appointment.Appointment, error) {
			txEntered = true
			return appt, nil
		},
	}
	fix := newCompletionFixture(t, apptRepo, &medicineRepoMock{}, medicine.AlertConfig{Threshold: 5, Enabled: true})

	_, err := fix.svc.CompleteAppointment(context.Background(), appt.ID, &appointment.CompleteAppointmentCommand{
		Prescriptions: []prescription.Line{
			{MedicineID: uuid.New(), Quantity: "2", Repetition: prescription.Repetition{}},
		},
		CompletedBy: doctorID,
	}, doctorID, "doctor", "127.0.0.1")

	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)
	assert.False(t, txEntered)
}
