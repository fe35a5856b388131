// Package cloudflare builds Cloudflare Workers KV API URLs and talks to
// the KV API through the fetch client.
package cloudflare

import (
	"errors"
	"fmt"

	"github.com/gaborage/go-fetch/endpoint"
)

// BaseURL is the Cloudflare API v4 root.
const BaseURL = "https://api.cloudflare.com/client/v4"

// Placeholder names understood by the URL builders
const (
	KeyAccountID   = "account_id"
	KeyNamespaceID = "namespace_id"
	KeyName        = "key_name"
)

const (
	namespacesPath = "/accounts/{{account_id}}/storage/kv/namespaces"
	verifyPath     = "/user/tokens/verify"
)

// Routes served by the KV proxy API, resolvable with Find
const (
	RouteNamespaceList        = "/api/namespace/getNamespaceList"
	RouteCreateNamespace      = "/api/namespace/createNamespace"
	RouteNamespace            = "/api/namespace/getNamespace"
	RouteRenameNamespace      = "/api/namespace/renameNamespace"
	RouteRemoveNamespace      = "/api/namespace/removeNamespace"
	RouteNamespaceKeys        = "/api/namespace/getNamespaceKeys"
	RouteNamespaceValue       = "/api/namespace/getNamespaceValue"
	RouteWriteNamespaceValue  = "/api/namespace/writeNamespaceValue"
	RouteDeleteNamespaceValue = "/api/namespace/deleteNamespaceValue"
	RouteBulkDelete           = "/api/namespace/deleteMultipleNamespaceValue"
	RouteBulkWrite            = "/api/namespace/writeMultipleNamespaceValue"
	RouteVerifyToken          = "/api/user/verify_token"
)

// ErrUnknownRoute is returned by Find for routes without a builder.
var ErrUnknownRoute = errors.New("cloudflare: unknown route")

// urls builds endpoint URLs under a base.
type urls string

func (u urls) namespaceList(v endpoint.Values) string {
	return endpoint.Format(string(u)+namespacesPath, v)
}

func (u urls) namespace(v endpoint.Values) string {
	return endpoint.Format(u.namespaceList(v)+"/{{namespace_id}}", v)
}

func (u urls) keys(v endpoint.Values) string {
	return u.namespace(v) + "/keys"
}

func (u urls) value(v endpoint.Values) string {
	return endpoint.Format(u.namespace(v)+"/values/{{key_name}}", v)
}

func (u urls) bulkWrite(v endpoint.Values) string {
	return u.namespace(v) + "/bulk"
}

func (u urls) bulkDelete(v endpoint.Values) string {
	return u.namespace(v) + "/bulk/delete"
}

func (u urls) verifyToken() string {
	return string(u) + verifyPath
}

var api = urls(BaseURL)

// NamespaceList is GET /accounts/{account_id}/storage/kv/namespaces.
func NamespaceList(v endpoint.Values) string { return api.namespaceList(v) }

// CreateNamespace is POST /accounts/{account_id}/storage/kv/namespaces.
func CreateNamespace(v endpoint.Values) string { return api.namespaceList(v) }

// Namespace is GET .../namespaces/{namespace_id}.
func Namespace(v endpoint.Values) string { return api.namespace(v) }

// RenameNamespace is PUT .../namespaces/{namespace_id}.
func RenameNamespace(v endpoint.Values) string { return api.namespace(v) }

// RemoveNamespace is DELETE .../namespaces/{namespace_id}.
func RemoveNamespace(v endpoint.Values) string { return api.namespace(v) }

// NamespaceKeys is GET .../namespaces/{namespace_id}/keys.
func NamespaceKeys(v endpoint.Values) string { return api.keys(v) }

// NamespaceValue is GET .../namespaces/{namespace_id}/values/{key_name}.
func NamespaceValue(v endpoint.Values) string { return api.value(v) }

// WriteNamespaceValue is PUT .../namespaces/{namespace_id}/values/{key_name}.
func WriteNamespaceValue(v endpoint.Values) string { return api.value(v) }

// DeleteNamespaceValue is DELETE .../namespaces/{namespace_id}/values/{key_name}.
func DeleteNamespaceValue(v endpoint.Values) string { return api.value(v) }

// BulkWrite is PUT .../namespaces/{namespace_id}/bulk.
func BulkWrite(v endpoint.Values) string { return api.bulkWrite(v) }

// BulkDelete is POST .../namespaces/{namespace_id}/bulk/delete.
func BulkDelete(v endpoint.Values) string { return api.bulkDelete(v) }

// VerifyToken is GET /user/tokens/verify.
func VerifyToken() string { return api.verifyToken() }

var routes = map[string]func(endpoint.Values) string{
	RouteNamespaceList:        NamespaceList,
	RouteCreateNamespace:      CreateNamespace,
	RouteNamespace:            Namespace,
	RouteRenameNamespace:      RenameNamespace,
	RouteRemoveNamespace:      RemoveNamespace,
	RouteNamespaceKeys:        NamespaceKeys,
	RouteNamespaceValue:       NamespaceValue,
	RouteWriteNamespaceValue:  WriteNamespaceValue,
	RouteDeleteNamespaceValue: DeleteNamespaceValue,
	RouteBulkDelete:           BulkDelete,
	RouteBulkWrite:            BulkWrite,
	RouteVerifyToken:          func(endpoint.Values) string { return VerifyToken() },
}

// Find resolves a proxy route to its Cloudflare URL.
func Find(route string, v endpoint.Values) (string, error) {
	build, ok := routes[route]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, route)
	}
	return build(v), nil
}
