package gallery

import (
	"net/http"

	"github.com/artifacts-gallery/gallery-api/pkg/gallery/handler"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/loopfz/gadgeto/tonic"
	"github.com/wI2L/fizz"
	"github.com/wI2L/fizz/openapi"
)

var apiVersionHeader = fizz.Header(
	"API-Version",
	"De API-versie van de response",
	"", // lege string betekent: primitive string in de spec
)

func NewRouter(apiVersion string, controller *handler.ArtifactsAPIController, verifier *middleware.Verifier) *fizz.Fizz {
	g := gin.Default()
	g.Use(cors.Default())
	g.Use(APIVersionMiddleware(apiVersion))
	f := fizz.NewFromEngine(g)

	gen := f.Generator()
	gen.API().Components.Headers["API-Version"] = &openapi.HeaderOrRef{
		Header: &openapi.Header{
			Description: "De API-versie van de response",
			Schema: &openapi.SchemaOrRef{
				Schema: &openapi.Schema{
					Type: "string",
				},
			},
		},
	}

	info := &openapi.Info{
		Title:       "Artifacts Gallery API",
		Description: "API van de Artifacts Gallery",
		Version:     apiVersion,
	}

	// Liveness
	f.Engine().GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Artifacts Gallery Server is connected")
	})

	root := f.Group("/artifacts", "Artifacts", "Artifact records en likes")

	root.POST("",
		[]fizz.OperationOption{fizz.Summary("Nieuw artifact aanmaken"), apiVersionHeader},
		tonic.Handler(controller.CreateArtifact, 201),
	)

	root.GET("",
		[]fizz.OperationOption{fizz.Summary("Alle artifacts ophalen, optioneel per eigenaar"), apiVersionHeader},
		tonic.Handler(controller.ListArtifacts, 200),
	)

	// Altijd-beveiligde route: de liker-scope vereist een geldige identiteit
	liked := root.Group("", "Liked", "Likes van de ingelogde gebruiker", middleware.RequireIdentity(verifier))
	liked.GET("/liked",
		[]fizz.OperationOption{fizz.Summary("Artifacts geliked door de ingelogde gebruiker"), apiVersionHeader},
		tonic.Handler(controller.ListLikedArtifacts, 200),
	)

	root.GET("/:id",
		[]fizz.OperationOption{fizz.Summary("Specifiek artifact ophalen"), apiVersionHeader},
		tonic.Handler(controller.RetrieveArtifact, 200),
	)

	root.PUT("/:id",
		[]fizz.OperationOption{fizz.Summary("Artifact bijwerken of aanmaken onder dit id"), apiVersionHeader},
		tonic.Handler(controller.UpsertArtifact, 200),
	)

	root.PATCH("/:id/like",
		[]fizz.OperationOption{fizz.Summary("Like of unlike van een artifact"), apiVersionHeader},
		tonic.Handler(controller.ToggleLike, 200),
	)

	root.DELETE("/:id",
		[]fizz.OperationOption{fizz.Summary("Artifact verwijderen"), apiVersionHeader},
		tonic.Handler(controller.DeleteArtifact, 200),
	)

	// OpenAPI documentatie
	f.GET("/openapi.json", []fizz.OperationOption{}, f.OpenAPI(info, "json"))

	return f
}

type apiVersionWriter struct {
	gin.ResponseWriter
	version string
}

func (w *apiVersionWriter) WriteHeader(code int) {
	if code >= 200 && code < 300 {
		w.Header().Set("API-Version", w.version)
	}
	w.ResponseWriter.WriteHeader(code)
}

func APIVersionMiddleware(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &apiVersionWriter{c.Writer, version}
		c.Next()
	}
}
