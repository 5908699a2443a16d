package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/projetodesenvolve/orcamento/core/recipient"
)

type recipientApi struct {
	svc      recipient.Service
	validate *validator.Validate
}

func registerRecipientAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc recipient.Service, validate *validator.Validate) {
	api := recipientApi{
		svc:      svc,
		validate: validate,
	}

	rg := g.Group("/emails", jwt)
	rg.GET("", api.query)
	rg.POST("", api.create)

	// detail endpoints
	dg := rg.Group("/:id", recipientObjectMiddleware(svc))
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *recipientApi) query(ctx echo.Context) error {
	filter := new(recipient.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []recipient.Recipient{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	recipients, err := api.svc.List(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying recipients")
	}
	return ctx.JSON(http.StatusOK, recipients)
}

func (api *recipientApi) create(ctx echo.Context) error {
	var data recipient.NewRecipient
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecipient")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rcpt, err := api.svc.Add(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rcpt)
}

func (api *recipientApi) update(ctx echo.Context) error {
	rcpt, ok := ctx.Get("object").(recipient.Recipient)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data recipient.UpdateRecipient
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecipient")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rcpt, err := api.svc.SetSelected(ctx.Request().Context(), rcpt.ID, *data.IsSelected)
	if err != nil {
		// removed since the middleware loaded it
		if errors.Cause(err) == recipient.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating recipient")
	}
	return ctx.JSON(http.StatusOK, rcpt)
}

func (api *recipientApi) destroy(ctx echo.Context) error {
	rcpt, ok := ctx.Get("object").(recipient.Recipient)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Remove(ctx.Request().Context(), rcpt.ID); err != nil {
		if errors.Cause(err) == recipient.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting recipient")
	}
	return ctx.NoContent(http.StatusNoContent)
}

var errObjNotFoundInCtx = errors.New("recipient object not found in echo.Context")

// recipientObjectMiddleware loads the recipient of the :id path param into the context.
func recipientObjectMiddleware(svc recipient.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil {
				return errHttpNotFound
			}
			rcpt, err := svc.Get(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == recipient.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding recipient by ID")
			}
			ctx.Set("object", rcpt)
			return next(ctx)
		}
	}
}
