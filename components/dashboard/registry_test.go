package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersDefinitionsThenProviders(t *testing.T) {
	reg := NewRegistry()

	defs := reg.Definitions()
	require.GreaterOrEqual(t, len(defs), len(DefaultWidgetDefinitions()))
	for _, def := range DefaultWidgetDefinitions() {
		_, ok := reg.Definition(def.Code)
		assert.Truef(t, ok, "expected definition %s", def.Code)
	}
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Code, defs[i].Code)
	}

	_, ok := reg.Provider(WidgetStatCards)
	assert.False(t, ok)

	require.NoError(t, reg.RegisterMarketingProviders(newTestRepo()))
	_, ok = reg.Provider(WidgetStatCards)
	assert.True(t, ok)
	for code := range configChartKinds {
		_, ok := reg.Provider(code)
		assert.Truef(t, ok, "expected chart provider for %s", code)
	}
	assert.Error(t, reg.RegisterMarketingProviders(nil))
}

func TestRegistryRejectsInvalidEntries(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.RegisterDefinition(WidgetDefinition{Name: "No code"}))
	assert.Error(t, reg.RegisterProvider("", ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) { return nil, nil })))
	assert.Error(t, reg.RegisterProvider("custom.widget", nil))
}

func TestRegistryHooksApplyToNewRegistries(t *testing.T) {
	RegisterWidgetHook(func(reg *Registry) error {
		if _, ok := reg.Definition("hooked.widget"); ok {
			return nil
		}
		return reg.RegisterDefinition(WidgetDefinition{Code: "hooked.widget", Name: "Hooked"})
	})
	reg := NewRegistry()
	def, ok := reg.Definition("hooked.widget")
	require.True(t, ok)
	assert.Equal(t, "Hooked", def.Name)
}

func TestRegisterMarketingProvidersKeepsHookedProviders(t *testing.T) {
	reg := NewRegistry()
	custom := ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{"custom": true}, nil
	})
	require.NoError(t, reg.RegisterProvider(WidgetKeywords, custom))
	require.NoError(t, reg.RegisterMarketingProviders(newTestRepo()))

	provider, ok := reg.Provider(WidgetKeywords)
	require.True(t, ok)
	data, err := provider.Fetch(context.Background(), WidgetContext{})
	require.NoError(t, err)
	assert.Equal(t, true, data["custom"])
}
