package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"

	"github.com/artifacts-gallery/gallery-api/pkg/gallery/handler"
	problem "github.com/artifacts-gallery/gallery-api/pkg/gallery/helpers/problem"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/middleware"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/models"
	"github.com/artifacts-gallery/gallery-api/pkg/jobs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/loopfz/gadgeto/tonic"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	gallery "github.com/artifacts-gallery/gallery-api/pkg/gallery"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/database"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/repositories"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/services"
)

const apiVersion = "1.0.0"

func invalidParamsFromBinding(err error, sample any) []problem.InvalidParam {
	// Probeer direct op validator.ValidationErrors te matchen.
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Geen validator-errors? Geef generiek terug.
		return []problem.InvalidParam{{Name: "body", Reason: err.Error()}}
	}

	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	out := make([]problem.InvalidParam, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		// StructField -> json tag
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
				name = strings.Split(tag, ",")[0]
			}
		}
		out = append(out, problem.InvalidParam{
			Name:   name,
			Reason: humanReason(fe),
		})
	}
	return out
}

func humanReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is verplicht"
	case "email":
		return "Moet een geldig e-mailadres zijn"
	default:
		return fe.Error()
	}
}

func init() {
	tonic.SetErrorHook(func(c *gin.Context, err error) (int, interface{}) {
		// 1) Bind/validate errors → 400 met correcte invalidParams
		var be tonic.BindError
		if errors.As(err, &be) || isValidationErr(err) {
			invalids := invalidParamsFromBinding(err, models.ToggleLikeInput{})
			apiErr := problem.NewBadRequest("body", "Invalid input", invalids...)
			c.Header("Content-Type", "application/problem+json")
			return apiErr.Status, apiErr
		}

		// 2) Eigen APIError → pass-through
		if apiErr, ok := err.(problem.APIError); ok {
			c.Header("Content-Type", "application/problem+json")
			return apiErr.Status, apiErr
		}

		// 3) Alles anders → 500, detail alleen in de log
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		internal := problem.NewInternalServerError("unexpected failure")
		c.Header("Content-Type", "application/problem+json")
		return internal.Status, internal
	})
}

func isValidationErr(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	dbcon := "postgres://" +
		os.Getenv("DB_USERNAME") + ":" +
		os.Getenv("DB_PASSWORD") + "@" +
		os.Getenv("DB_HOSTNAME") + "/" +
		os.Getenv("DB_DBNAME") + "?search_path=" +
		os.Getenv("DB_SCHEMA")
	db, err := database.Connect(dbcon)
	if err != nil {
		log.Printf("[WARN] Geen databaseverbinding: %v", err)
		log.Println("[INFO] API wordt gestart zonder databasefunctionaliteit")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("[WARN] sluiten databaseverbinding: %v", err)
		}
	}()

	var verifier *middleware.Verifier
	if blob := os.Getenv("IDP_CREDENTIAL"); blob != "" {
		verifier, err = middleware.NewVerifier(blob)
		if err != nil {
			log.Fatalf("[FATAL] IDP_CREDENTIAL ongeldig: %v", err)
		}
	} else {
		// Zonder credential weigert de verifier alles; open routes blijven werken.
		log.Println("[WARN] IDP_CREDENTIAL ontbreekt, beveiligde routes geven 401")
	}

	artifactRepo := repositories.NewArtifactRepository(db)
	galleryService := services.NewGalleryService(artifactRepo)
	artifactsController := handler.NewArtifactsAPIController(galleryService, verifier)
	jobs.ScheduleDailyAudit(context.Background(), galleryService)

	// Start server
	router := gallery.NewRouter(apiVersion, artifactsController, verifier)

	log.Printf("Artifacts Gallery Server is running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
