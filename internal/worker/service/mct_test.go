package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	refmodels "afya/internal/reference/models"
	refmemory "afya/internal/reference/store/memory"
	"afya/internal/worker/models"
)

func mctDataset() *refmemory.RegistrationStore {
	store := refmemory.NewRegistrationStore()
	store.Load([]*refmodels.MCTRegistration{
		{ID: "1", RegistrationNumber: "MCT-100", Name: "Amani Mushi"},
		{ID: "2", RegistrationNumber: "MCT-200", Name: ""},
	})
	return store
}

func payrollDataset() *refmemory.PayrollStore {
	store := refmemory.NewPayrollStore()
	store.Load([]*refmodels.MCTPayroll{
		{ID: "1", CheckNumber: "CHK-100", Name: "Neema Kimaro"},
		{ID: "2", CheckNumber: "CHK-200", Name: ""},
	})
	return store
}

func TestMCTVerifier(t *testing.T) {
	ctx := context.Background()
	verifier := NewMCTVerifier(mctDataset(), payrollDataset())

	verify := func(worker models.HealthWorker) bool {
		ok, err := verifier.Verified(ctx, &worker)
		require.NoError(t, err)
		return ok
	}
	byRegistration := func(regNum, name, surname string) bool {
		return verify(models.HealthWorker{Name: name, Surname: surname, MCTRegistrationNum: regNum})
	}

	t.Run("no registration number never verifies", func(t *testing.T) {
		assert.False(t, byRegistration("", "Amani", "Mushi"))
	})

	t.Run("unknown registration number never verifies", func(t *testing.T) {
		assert.False(t, byRegistration("MCT-999", "Amani", "Mushi"))
	})

	t.Run("matching name verifies", func(t *testing.T) {
		assert.True(t, byRegistration("MCT-100", "Amani", "Mushi"))
	})

	t.Run("minor misspelling still verifies", func(t *testing.T) {
		assert.True(t, byRegistration("MCT-100", "Amani", "Mushy"))
	})

	t.Run("different person does not verify", func(t *testing.T) {
		assert.False(t, byRegistration("MCT-100", "Neema", "Kimaro"))
	})

	t.Run("council record without a name verifies on number alone", func(t *testing.T) {
		assert.True(t, byRegistration("MCT-200", "Whoever", "This Is"))
	})

	t.Run("registration lookup is case-insensitive", func(t *testing.T) {
		assert.True(t, byRegistration("mct-100", "Amani", "Mushi"))
	})

	t.Run("payroll check number verifies when registration is absent", func(t *testing.T) {
		assert.True(t, verify(models.HealthWorker{
			Name: "Neema", Surname: "Kimaro", MCTPayrollNum: "CHK-100",
		}))
	})

	t.Run("payroll check number verifies when registration misses", func(t *testing.T) {
		assert.True(t, verify(models.HealthWorker{
			Name: "Neema", Surname: "Kimaro",
			MCTRegistrationNum: "MCT-999", MCTPayrollNum: "CHK-100",
		}))
	})

	t.Run("payroll name mismatch does not verify", func(t *testing.T) {
		assert.False(t, verify(models.HealthWorker{
			Name: "Amani", Surname: "Mushi", MCTPayrollNum: "CHK-100",
		}))
	})

	t.Run("payroll record without a name verifies on number alone", func(t *testing.T) {
		assert.True(t, verify(models.HealthWorker{
			Name: "Whoever", MCTPayrollNum: "CHK-200",
		}))
	})

	t.Run("unknown check number never verifies", func(t *testing.T) {
		assert.False(t, verify(models.HealthWorker{
			Name: "Neema", Surname: "Kimaro", MCTPayrollNum: "CHK-999",
		}))
	})

	t.Run("neither number claimed never verifies", func(t *testing.T) {
		assert.False(t, verify(models.HealthWorker{Name: "Neema", Surname: "Kimaro"}))
	})
}
