package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func (suite *RepositoryTestSuite) RunHealthcheckTests(test *testing.T) {
	test.Run("Healthcheck_Success", suite.TestHealthcheck_Success)
}

// TestHealthcheck_Success verifies that a healthy repository passes health checks.
func (suite *RepositoryTestSuite) TestHealthcheck_Success(test *testing.T) {
	repo, _ := suite.newRepository(test)
	ctx := context.Background()

	err := repo.Healthcheck(ctx)

	require.NoError(test, err, "Healthy repository should pass health check")
}
