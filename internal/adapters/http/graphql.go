package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/plotfit/internal/core/domain"
	"github.com/samirrijal/plotfit/internal/core/usecases"
)

func geoPointMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon}
}

func boundsMap(b domain.OverlayBounds) map[string]interface{} {
	corners := b.Corners()
	cs := make([]interface{}, 0, len(corners))
	for _, c := range corners {
		cs = append(cs, geoPointMap(c))
	}
	return map[string]interface{}{
		"south_west": geoPointMap(b.SouthWest),
		"north_east": geoPointMap(b.NorthEast),
		"bbox":       b.BBoxString(),
		"corners":    cs,
	}
}

func verdictMap(v domain.Verdict) map[string]interface{} {
	return map[string]interface{}{
		"valid":      v.Valid,
		"reason":     string(v.Reason),
		"message":    v.Message,
		"polygon_id": v.PolygonID,
		"edge":       v.Edge,
	}
}

func parcelMap(p domain.Polygon) map[string]interface{} {
	vs := make([]interface{}, 0, len(p.Vertices))
	for _, v := range p.Vertices {
		vs = append(vs, geoPointMap(v))
	}
	return map[string]interface{}{"id": p.ID, "vertices": vs}
}

func outcomeMap(o usecases.Outcome) map[string]interface{} {
	m := map[string]interface{}{
		"kind":     string(o.Kind),
		"bounds":   boundsMap(o.Bounds),
		"rotation": o.Rotation,
	}
	if o.Candidate != nil {
		m["candidate"] = boundsMap(*o.Candidate)
	}
	if o.Verdict != nil {
		m["verdict"] = verdictMap(*o.Verdict)
	}
	if o.Err != nil {
		m["error"] = o.Err.Error()
	}
	return m
}

// boundsArgs are the rectangle arguments shared by validate and place.
var boundsArgs = graphql.FieldConfigArgument{
	"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
}

func boundsFromArgs(args map[string]interface{}) (domain.OverlayBounds, error) {
	return domain.NewOverlayBounds(
		domain.GeoPoint{Lat: args["south"].(float64), Lon: args["west"].(float64)},
		domain.GeoPoint{Lat: args["north"].(float64), Lon: args["east"].(float64)},
	)
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"south_west": &graphql.Field{Type: geoPointType},
			"north_east": &graphql.Field{Type: geoPointType},
			"bbox":       &graphql.Field{Type: graphql.String},
			"corners":    &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	verdictType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Verdict",
		Fields: graphql.Fields{
			"valid":      &graphql.Field{Type: graphql.Boolean},
			"reason":     &graphql.Field{Type: graphql.String},
			"message":    &graphql.Field{Type: graphql.String},
			"polygon_id": &graphql.Field{Type: graphql.String},
			"edge":       &graphql.Field{Type: graphql.Int},
		},
	})

	overlayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Overlay",
		Fields: graphql.Fields{
			"overlay_id": &graphql.Field{Type: graphql.String},
			"image_url":  &graphql.Field{Type: graphql.String},
			"bounds":     &graphql.Field{Type: boundsType},
			"rotation":   &graphql.Field{Type: graphql.Float},
			"state":      &graphql.Field{Type: graphql.String},
		},
	})

	parcelType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Parcel",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"vertices": &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	outcomeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Outcome",
		Fields: graphql.Fields{
			"kind":      &graphql.Field{Type: graphql.String},
			"bounds":    &graphql.Field{Type: boundsType},
			"candidate": &graphql.Field{Type: boundsType},
			"verdict":   &graphql.Field{Type: verdictType},
			"rotation":  &graphql.Field{Type: graphql.Float},
			"error":     &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"overlay": &graphql.Field{
				Type:        overlayType,
				Description: "The overlay as currently placed",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					view := deps.Controller.View()
					return map[string]interface{}{
						"overlay_id": view.OverlayID,
						"image_url":  view.ImageURL,
						"bounds":     boundsMap(view.Bounds),
						"rotation":   view.Rotation,
						"state":      string(deps.Controller.State()),
					}, nil
				},
			},
			"parcels": &graphql.Field{
				Type:        graphql.NewList(parcelType),
				Description: "Polygons of the current parcel set",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pg := Pagination{Offset: max(p.Args["offset"].(int), 0), Limit: p.Args["limit"].(int)}
					if pg.Limit <= 0 || pg.Limit > maxPageLimit {
						pg.Limit = defaultPageLimit
					}
					return paginate(deps.Polygons.Current().Polygons(), pg, parcelMap).Data, nil
				},
			},
			"validate": &graphql.Field{
				Type:        verdictType,
				Description: "Check a placement without committing it",
				Args:        boundsArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b, err := boundsFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return verdictMap(deps.Validator.Validate(b, deps.Polygons.Current())), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"place": &graphql.Field{
				Type:        outcomeType,
				Description: "Validate a placement and commit it when accepted",
				Args:        boundsArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b, err := boundsFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return outcomeMap(deps.Controller.Place(p.Context, b)), nil
				},
			},
			"setReference": &graphql.Field{
				Type:        geoPointType,
				Description: "Move the parcel reference point and refresh polygons in the background",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					if err := checkReference(pt); err != nil {
						return nil, err
					}
					deps.Polygons.RefreshAsync(pt)
					return geoPointMap(pt), nil
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
