package repositories

import (
	"context"
	"testing"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type UserRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     UserRepository
	clinicID uuid.UUID
	ctx      context.Context
}

func (suite *UserRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewUserRepo(mock)
	suite.clinicID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *UserRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestUserRepoTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepoTestSuite))
}

func (suite *UserRepoTestSuite) TestUpsert_Insert() {
	user := &models.User{
		ID:           uuid.New(),
		ClinicID:     suite.clinicID,
		Email:        "doc@x.com",
		PasswordHash: "hash",
		FirstName:    "Dana",
		LastName:     "Reyes",
		Role:         models.RoleDoctor,
		Status:       "active",
	}

	suite.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(user.ID, user.ClinicID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.Status).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.repo.Upsert(suite.ctx, user))
}

// A second Upsert with the same id must not fail; the conflict clause turns
// it into an update, which is what makes provisioning retries safe.
func (suite *UserRepoTestSuite) TestUpsert_RetrySameID() {
	user := &models.User{
		ID:       uuid.New(),
		ClinicID: suite.clinicID,
		Email:    "doc@x.com",
		Role:     models.RoleDoctor,
		Status:   "active",
	}

	suite.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(user.ID, user.ClinicID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.Status).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.Upsert(suite.ctx, user))
}

func (suite *UserRepoTestSuite) TestGetByEmail_Found() {
	userID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "clinic_id", "email", "password_hash", "first_name", "last_name", "role", "status", "created_at", "updated_at"}).
		AddRow(userID, suite.clinicID, "doc@x.com", "hash", "Dana", "Reyes", models.RoleDoctor, "active", now, now)

	suite.mock.ExpectQuery(`FROM users\s+WHERE email = \$1`).
		WithArgs("doc@x.com").
		WillReturnRows(rows)

	user, err := suite.repo.GetByEmail(suite.ctx, "doc@x.com")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), userID, user.ID)
	assert.Equal(suite.T(), models.RoleDoctor, user.Role)
}

func (suite *UserRepoTestSuite) TestGetByEmail_MissingReturnsNil() {
	suite.mock.ExpectQuery(`SELECT id, clinic_id, email, password_hash, first_name, last_name, role, status, created_at, updated_at`).
		WithArgs("ghost@x.com").
		WillReturnError(pgx.ErrNoRows)

	user, err := suite.repo.GetByEmail(suite.ctx, "ghost@x.com")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)
}

func (suite *UserRepoTestSuite) TestGetByID_MissingReturnsNil() {
	userID := uuid.New()
	suite.mock.ExpectQuery(`FROM users\s+WHERE clinic_id = \$1 AND id = \$2`).
		WithArgs(suite.clinicID, userID).
		WillReturnError(pgx.ErrNoRows)

	user, err := suite.repo.GetByID(suite.ctx, suite.clinicID, userID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)
}

func (suite *UserRepoTestSuite) TestGetByAuthID_MissingReturnsNil() {
	userID := uuid.New()
	suite.mock.ExpectQuery(`SELECT id, clinic_id, email, first_name, last_name, role, status, created_at, updated_at`).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)

	user, err := suite.repo.GetByAuthID(suite.ctx, userID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)
}
