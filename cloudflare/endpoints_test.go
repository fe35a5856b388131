package cloudflare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-fetch/endpoint"
)

const testNamespaces = BaseURL + "/accounts/acc/storage/kv/namespaces"

func TestEndpointBuilders(t *testing.T) {
	v := endpoint.Values{KeyAccountID: "acc", KeyNamespaceID: "ns", KeyName: "greeting"}

	tests := []struct {
		name     string
		build    func(endpoint.Values) string
		expected string
	}{
		{"namespace list", NamespaceList, testNamespaces},
		{"create namespace", CreateNamespace, testNamespaces},
		{"namespace", Namespace, testNamespaces + "/ns"},
		{"rename namespace", RenameNamespace, testNamespaces + "/ns"},
		{"remove namespace", RemoveNamespace, testNamespaces + "/ns"},
		{"namespace keys", NamespaceKeys, testNamespaces + "/ns/keys"},
		{"namespace value", NamespaceValue, testNamespaces + "/ns/values/greeting"},
		{"write namespace value", WriteNamespaceValue, testNamespaces + "/ns/values/greeting"},
		{"delete namespace value", DeleteNamespaceValue, testNamespaces + "/ns/values/greeting"},
		{"bulk write", BulkWrite, testNamespaces + "/ns/bulk"},
		{"bulk delete", BulkDelete, testNamespaces + "/ns/bulk/delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.build(v))
		})
	}
}

func TestEndpointBuildersKeepMissingPlaceholders(t *testing.T) {
	assert.Equal(t,
		BaseURL+"/accounts/{{account_id}}/storage/kv/namespaces/{{namespace_id}}/values/{{key_name}}",
		NamespaceValue(nil))
	assert.Equal(t,
		testNamespaces+"/{{namespace_id}}/keys",
		NamespaceKeys(endpoint.Values{KeyAccountID: "acc"}))
}

func TestVerifyTokenURL(t *testing.T) {
	assert.Equal(t, "https://api.cloudflare.com/client/v4/user/tokens/verify", VerifyToken())
}

func TestFind(t *testing.T) {
	v := endpoint.Values{KeyAccountID: "acc", KeyNamespaceID: "ns", KeyName: "k"}

	got, err := Find(RouteNamespaceValue, v)
	require.NoError(t, err)
	assert.Equal(t, testNamespaces+"/ns/values/k", got)

	got, err = Find(RouteNamespaceList, v)
	require.NoError(t, err)
	assert.Equal(t, testNamespaces, got)

	got, err = Find(RouteVerifyToken, nil)
	require.NoError(t, err)
	assert.Equal(t, VerifyToken(), got)

	for _, route := range []string{
		RouteCreateNamespace, RouteNamespace, RouteRenameNamespace, RouteRemoveNamespace,
		RouteNamespaceKeys, RouteWriteNamespaceValue, RouteDeleteNamespaceValue,
		RouteBulkDelete, RouteBulkWrite,
	} {
		_, err := Find(route, v)
		assert.NoError(t, err, route)
	}

	_, err = Find("/api/namespace/unknown", v)
	assert.ErrorIs(t, err, ErrUnknownRoute)
}
