package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapdraw/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the drawing services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	styleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Style",
		Fields: graphql.Fields{
			"color":  &graphql.Field{Type: graphql.String},
			"weight": &graphql.Field{Type: graphql.Float},
		},
	})

	pinType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pin",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"label":    &graphql.Field{Type: graphql.String},
			"position": &graphql.Field{Type: geoPointType},
		},
	})

	shapeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Shape",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"kind":          &graphql.Field{Type: graphql.String},
			"position":      &graphql.Field{Type: geoPointType},
			"vertices":      &graphql.Field{Type: graphql.NewList(geoPointType)},
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"label":         &graphql.Field{Type: graphql.String},
			"style":         &graphql.Field{Type: styleType},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Status",
		Fields: graphql.Fields{
			"tool":          &graphql.Field{Type: graphql.String},
			"color":         &graphql.Field{Type: graphql.String},
			"weight":        &graphql.Field{Type: graphql.Float},
			"eraser_radius": &graphql.Field{Type: graphql.Float},
			"pins":          &graphql.Field{Type: graphql.Int},
			"shapes":        &graphql.Field{Type: graphql.Int},
			"history_depth": &graphql.Field{Type: graphql.Int},
			"revision":      &graphql.Field{Type: graphql.Int},
			"bounds":        &graphql.Field{Type: boundsType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pins": &graphql.Field{
				Type:        graphql.NewList(pinType),
				Description: "Markers in the pin list",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Drawing.Pins(), nil
				},
			},
			"shapes": &graphql.Field{
				Type:        graphql.NewList(shapeType),
				Description: "All shapes in z-order, optionally filtered by kind",
				Args: graphql.FieldConfigArgument{
					"kind": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					shapes := deps.Drawing.Shapes()
					kind, _ := p.Args["kind"].(string)
					if kind == "" {
						return shapes, nil
					}
					var out []domain.Shape
					for _, s := range shapes {
						if string(s.Kind) == kind {
							out = append(out, s)
						}
					}
					return out, nil
				},
			},
			"document": &graphql.Field{
				Type:        graphql.String,
				Description: "The document as a GeoJSON FeatureCollection",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					data, err := deps.Drawing.Export(p.Context)
					if err != nil {
						return nil, err
					}
					return string(data), nil
				},
			},
			"status": &graphql.Field{
				Type:        statusType,
				Description: "Editor status summary",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Drawing.Status(), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"renameMarker": &graphql.Field{
				Type:        graphql.NewList(pinType),
				Description: "Rename a marker; returns the updated pin list",
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"label": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					label := p.Args["label"].(string)
					if err := deps.Drawing.RenameMarker(p.Context, id, label); err != nil {
						return nil, err
					}
					return deps.Drawing.Pins(), nil
				},
			},
			"deleteMarker": &graphql.Field{
				Type:        graphql.NewList(pinType),
				Description: "Delete a marker; returns the updated pin list",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Drawing.DeleteMarker(p.Context, p.Args["id"].(string)); err != nil {
						return nil, err
					}
					return deps.Drawing.Pins(), nil
				},
			},
			"undo": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Undo the last change; false when there is nothing to undo",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Drawing.Undo(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
