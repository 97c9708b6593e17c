package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/CJosueA/Sistema-Facturacion/internal/apierror"
	"github.com/CJosueA/Sistema-Facturacion/internal/middleware"
	"github.com/CJosueA/Sistema-Facturacion/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their JSON name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathID parses a positive numeric path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

// respondError maps service errors to HTTP responses. Anything it does not
// recognise is attached to the context for ErrorHandler to log and answered
// with a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		vErr *service.ValidationError
		sErr *service.InsufficientStockError
		tErr *service.TransactionFailure
	)
	switch {
	case errors.As(err, &vErr):
		field := vErr.Field
		if field == "" {
			field = "request"
		}
		c.JSON(http.StatusUnprocessableEntity, &apierror.ValidationError{
			Detail: vErr.Error(),
			Fields: map[string]string{field: vErr.Detail},
		})
	case errors.As(err, &sErr):
		c.JSON(http.StatusConflict, &apierror.StockError{
			Detail:      "insufficient stock",
			ProductID:   sErr.ProductID,
			ProductName: sErr.ProductName,
			Available:   sErr.Available,
			Requested:   sErr.Requested,
		})
	case errors.As(err, &tErr):
		log.Error().
			Err(tErr.Err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("transaction failed")
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, apierror.New("the operation could not be completed, please retry"))
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrDocumentNotReady),
		errors.Is(err, service.ErrCustomerInUse),
		errors.Is(err, service.ErrDuplicateCode),
		errors.Is(err, service.ErrDuplicateIdentification):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
