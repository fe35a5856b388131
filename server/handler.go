package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-fetch/cloudflare"
	"github.com/gaborage/go-fetch/response"
	"github.com/gaborage/go-fetch/textcode"
)

// RouteNamespaceValues reads several keys at once. It has no single
// Cloudflare counterpart, so it is not resolvable with cloudflare.Find.
const RouteNamespaceValues = "/api/namespace/getMultipleNamespaceValue"

type namespaceRequest struct {
	NamespaceID string `query:"namespace_id" validate:"required"`
}

type createRequest struct {
	Title string `json:"title" validate:"required"`
}

type renameRequest struct {
	NamespaceID string `query:"namespace_id" json:"-" validate:"required"`
	Title       string `json:"title" validate:"required"`
}

type valueRequest struct {
	NamespaceID string `query:"namespace_id" validate:"required"`
	Key         string `query:"key_name" validate:"required,max=512"`
}

type keysRequest struct {
	NamespaceID string   `query:"namespace_id" json:"-" validate:"required"`
	Keys        []string `json:"keys" validate:"min=1,dive,required,max=512"`
}

type pairsRequest struct {
	NamespaceID string            `query:"namespace_id" json:"-" validate:"required"`
	Pairs       []cloudflare.Pair `json:"pairs" validate:"min=1,dive"`
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.GET(cloudflare.RouteVerifyToken, s.verifyToken)
	e.GET(cloudflare.RouteNamespaceList, s.listNamespaces)
	e.POST(cloudflare.RouteCreateNamespace, s.createNamespace)
	e.GET(cloudflare.RouteNamespace, s.getNamespace)
	e.POST(cloudflare.RouteRenameNamespace, s.renameNamespace)
	e.POST(cloudflare.RouteRemoveNamespace, s.removeNamespace)
	e.GET(cloudflare.RouteNamespaceKeys, s.listKeys)
	e.GET(cloudflare.RouteNamespaceValue, s.getValue)
	e.POST(RouteNamespaceValues, s.getValues)
	e.POST(cloudflare.RouteWriteNamespaceValue, s.writeValue)
	e.POST(cloudflare.RouteDeleteNamespaceValue, s.deleteValue)
	e.POST(cloudflare.RouteBulkWrite, s.bulkWrite)
	e.POST(cloudflare.RouteBulkDelete, s.bulkDelete)
}

// bind fills dst from the query string and, when present, the JSON body,
// then validates it. Query parameters are bound for every method.
func bind(c echo.Context, dst any) error {
	binder := &echo.DefaultBinder{}
	if err := binder.BindQueryParams(c, dst); err != nil {
		return err
	}
	if err := binder.BindBody(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// bindQuery is bind without the body, for routes whose body is the payload.
func bindQuery(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

func (s *Server) verifyToken(c echo.Context) error {
	status, err := s.store.VerifyToken(c.Request().Context())
	if err != nil {
		return err
	}
	return response.Success(c, status)
}

func (s *Server) listNamespaces(c echo.Context) error {
	namespaces, err := s.store.ListNamespaces(c.Request().Context())
	if err != nil {
		return err
	}
	return response.Success(c, namespaces)
}

func (s *Server) createNamespace(c echo.Context) error {
	var req createRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ns, err := s.store.CreateNamespace(c.Request().Context(), req.Title)
	if err != nil {
		return err
	}
	return response.Success(c, ns)
}

func (s *Server) getNamespace(c echo.Context) error {
	var req namespaceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ns, err := s.store.GetNamespace(c.Request().Context(), req.NamespaceID)
	if err != nil {
		return err
	}
	return response.Success(c, ns)
}

func (s *Server) renameNamespace(c echo.Context) error {
	var req renameRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.RenameNamespace(c.Request().Context(), req.NamespaceID, req.Title); err != nil {
		return err
	}
	return response.Success(c, nil)
}

func (s *Server) removeNamespace(c echo.Context) error {
	var req namespaceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.RemoveNamespace(c.Request().Context(), req.NamespaceID); err != nil {
		return err
	}
	return response.Success(c, nil)
}

func (s *Server) listKeys(c echo.Context) error {
	var req namespaceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	keys, err := s.store.ListKeys(c.Request().Context(), req.NamespaceID)
	if err != nil {
		return err
	}
	return response.Success(c, keys)
}

func (s *Server) getValue(c echo.Context) error {
	var req valueRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	value, err := s.store.GetValue(c.Request().Context(), req.NamespaceID, req.Key)
	if err != nil {
		return err
	}
	return response.Stream(c, bytes.NewReader(value))
}

// getValues answers with the values as text; invalid UTF-8 is replaced.
func (s *Server) getValues(c echo.Context) error {
	var req keysRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	values, err := s.store.GetValues(c.Request().Context(), req.NamespaceID, req.Keys)
	if err != nil {
		return err
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = textcode.BytesToText(v)
	}
	return response.Success(c, out)
}

// writeValue stores the raw request body.
func (s *Server) writeValue(c echo.Context) error {
	var req valueRequest
	if err := bindQuery(c, &req); err != nil {
		return err
	}
	value, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read value").SetInternal(err)
	}
	if err := s.store.PutValue(c.Request().Context(), req.NamespaceID, req.Key, value); err != nil {
		return err
	}
	return response.Success(c, nil)
}

func (s *Server) deleteValue(c echo.Context) error {
	var req valueRequest
	if err := bindQuery(c, &req); err != nil {
		return err
	}
	if err := s.store.DeleteValue(c.Request().Context(), req.NamespaceID, req.Key); err != nil {
		return err
	}
	return response.Success(c, nil)
}

func (s *Server) bulkWrite(c echo.Context) error {
	var req pairsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.BulkWrite(c.Request().Context(), req.NamespaceID, req.Pairs); err != nil {
		return err
	}
	return response.Success(c, nil)
}

func (s *Server) bulkDelete(c echo.Context) error {
	var req keysRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.BulkDelete(c.Request().Context(), req.NamespaceID, req.Keys); err != nil {
		return err
	}
	return response.Success(c, nil)
}
