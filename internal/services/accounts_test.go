package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

func TestAdminSignup_RequiresKey(t *testing.T) {
	database := setupServicesDB(t, "test_services_admin")
	cfg := testConfig()
	svc := NewAdminService(database, cfg)
	ctx := context.Background()

	_, err := svc.Signup(ctx, AdminSignup{Name: "Root", Email: "root@x.test", Password: "secret1", SignupKey: "wrong"})
	assert.ErrorIs(t, err, ErrForbidden)

	admin, err := svc.Signup(ctx, AdminSignup{Name: "Root", Email: "Root@X.test", Password: "secret1", SignupKey: "let-me-in"})
	require.NoError(t, err)
	assert.Equal(t, "root@x.test", admin.Email)

	_, err = svc.Signup(ctx, AdminSignup{Name: "Root2", Email: "root@x.test", Password: "secret1", SignupKey: "let-me-in"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	got, err := svc.Login(ctx, "ROOT@x.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	_, err = svc.Login(ctx, "root@x.test", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ghost@x.test", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	cfg.AdminSignupKey = ""
	_, err = svc.Signup(ctx, AdminSignup{Name: "Other", Email: "other@x.test", Password: "secret1"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAgentSignup_PendingUntilApproved(t *testing.T) {
	database := setupServicesDB(t, "test_services_agent")
	notifier := &recordingNotifier{}
	svc := NewAgentService(database, testConfig(), notifier)
	ctx := context.Background()

	agent, err := svc.Signup(ctx, AgentSignup{
		Name: "Ravi", AgencyName: "Ravi News", Email: "ravi@agency.test", Mobile: "90000 00001", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusPending, agent.Status)
	assert.Equal(t, "9000000001", agent.Mobile)

	_, err = svc.Login(ctx, "ravi@agency.test", "secret1")
	assert.ErrorIs(t, err, ErrAccountNotApproved)
	_, err = svc.Login(ctx, "ravi@agency.test", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "status must not leak without the password")

	_, err = svc.Signup(ctx, AgentSignup{Name: "Dup", Email: "other@agency.test", Mobile: "9000000001", Password: "secret1"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	pending, err := svc.List(ctx, models.AgentStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = svc.Review(ctx, agent.ID, models.AgentStatusPending)
	assert.ErrorIs(t, err, ErrValidation)

	approved, err := svc.Review(ctx, agent.ID, models.AgentStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusApproved, approved.Status)
	assert.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, []string{models.TemplateAgentApproved}, notifier.templates())

	loggedIn, err := svc.Login(ctx, "ravi@agency.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, loggedIn.ID)

	ids, err := svc.ApprovedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []utils.SixID{agent.ID}, ids)

	_, err = svc.Review(ctx, agent.ID, models.AgentStatusRejected)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "ravi@agency.test", "secret1")
	assert.ErrorIs(t, err, ErrAccountNotApproved)
}

func TestAgentUpdateProfile(t *testing.T) {
	database := setupServicesDB(t, "test_services_agent_profile")
	svc := NewAgentService(database, testConfig(), nil)
	ctx := context.Background()

	a, err := svc.Signup(ctx, AgentSignup{Name: "A", Email: "a@x.test", Mobile: "1111111111", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, AgentSignup{Name: "B", Email: "b@x.test", Mobile: "2222222222", Password: "secret1"})
	require.NoError(t, err)

	name := "A Prime"
	updated, err := svc.UpdateProfile(ctx, a.ID, AgentProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "A Prime", updated.Name)
	assert.Equal(t, "1111111111", updated.Mobile)

	taken := "2222222222"
	_, err = svc.UpdateProfile(ctx, a.ID, AgentProfileUpdate{Mobile: &taken})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	same := "1111111111"
	_, err = svc.UpdateProfile(ctx, a.ID, AgentProfileUpdate{Mobile: &same})
	assert.NoError(t, err)
}

func TestCustomerLoginByEmailOrMobile(t *testing.T) {
	database := setupServicesDB(t, "test_services_customer")
	svc := NewCustomerService(database, testConfig())
	ctx := context.Background()

	c, err := svc.Signup(ctx, CustomerSignup{Name: "Asha", Email: "asha@home.test", Mobile: "9000000002", Password: "secret2"})
	require.NoError(t, err)

	byEmail, err := svc.Login(ctx, "asha@home.test", "secret2")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byEmail.ID)

	byMobile, err := svc.Login(ctx, "90000-00002", "secret2")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byMobile.ID)

	_, err = svc.Signup(ctx, CustomerSignup{Name: "Short", Email: "s@home.test", Mobile: "1", Password: "123"})
	assert.ErrorIs(t, err, ErrValidation)

	found, err := svc.FindByIdentifier(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
	_, err = svc.FindByIdentifier(ctx, "nobody@home.test")
	assert.True(t, IsNotFound(err))
}
