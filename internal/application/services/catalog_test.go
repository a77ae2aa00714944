package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/application/dto"
	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/entities"
)

func TestCatalogUseCase_ListTypes(t *testing.T) {
	web := typeEntry("web", "", dependsOn("api", "API"))
	api := typeEntry("api", "API")
	api.Profiles = []*entities.ComponentProfile{
		componentProfile("api-small", ""),
		componentProfile("api-large", ""),
	}

	scanner := new(MockScanner)
	scanner.On("Scan", mock.Anything, []string{"types"}).
		Return(&ports.Catalog{Types: []catalog.Entry{web, api}}, nil).Once()

	uc := NewCatalogUseCase(scanner, repoClassLoaders{}, discardLogger)
	types, err := uc.ListTypes(context.Background(), dto.CatalogRequest{TypePaths: []string{"types"}})
	require.NoError(t, err)
	require.Len(t, types, 2)

	assert.Equal(t, "acme.api", types[0].Classname)
	assert.Equal(t, []string{"API:1.0.0"}, types[0].Services)
	assert.Equal(t, []string{"api-small", "api-large"}, types[0].Profiles)

	assert.Equal(t, "acme.web", types[1].Classname)
	assert.Equal(t, []string{"api"}, types[1].Dependencies)
	assert.Equal(t, []string{"web"}, types[1].Profiles)
	scanner.AssertExpectations(t)
}
