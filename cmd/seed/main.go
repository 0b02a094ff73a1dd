package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/academia-api/internal/auth"
	"github.com/noah-isme/academia-api/internal/config"
	"github.com/noah-isme/academia-api/internal/database"
	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/repository"
	"github.com/noah-isme/academia-api/internal/service"
	"github.com/noah-isme/academia-api/pkg/events"
)

type demoCourse struct {
	name    string
	faculty string
}

type demoStudent struct {
	name   string
	year   int
	grades map[string]float64
}

var (
	demoFaculty = []string{"Grace Hopper", "Edsger Dijkstra"}
	demoCourses = []demoCourse{
		{name: "Algorithms", faculty: "Edsger Dijkstra"},
		{name: "Compilers", faculty: "Grace Hopper"},
		{name: "Databases"},
	}
	demoStudents = []demoStudent{
		{name: "Ada Lovelace", year: 4, grades: map[string]float64{"Algorithms": 4.0, "Compilers": 3.7}},
		{name: "Alan Turing", year: 3, grades: map[string]float64{"Algorithms": 3.9, "Databases": 3.2}},
		{name: "Barbara Liskov", year: 2, grades: map[string]float64{"Compilers": 3.8}},
		{name: "Ken Thompson", year: 1, grades: map[string]float64{"Databases": 2.9}},
	}
)

func main() {
	demo := flag.Bool("demo", false, "also insert demo faculty, courses, students and grades")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.SeedAdminPassword == "" {
		log.Fatalf("ACADEMIA_SEED_ADMIN_PASSWORD must be provided")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "seed").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	validate := validator.New(validator.WithRequiredStructEnabled())
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, cached dashboard summaries may be stale until they expire")
		} else {
			defer cache.Close()
		}
	}

	dashboard := service.NewDashboardService(studentRepo, courseRepo, facultyRepo, cache, cfg.DashboardCacheTTL, validate, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), events.NopPublisher{}, dashboard, validate, logger)
	authService := service.NewAuthService(repository.NewUserRepository(db), auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL), activity, validate, logger)

	admin, created, err := authService.EnsureUser(ctx, dto.RegisterRequest{
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}
	logger.Info().Str("email", admin.Email).Bool("created", created).Msg("admin account ready")

	if !*demo {
		return
	}

	actor := service.Actor{ID: admin.ID, Role: admin.Role, Email: admin.Email}
	seeder := demoSeeder{
		actor:    actor,
		students: service.NewStudentService(studentRepo, courseRepo, activity, validate, logger),
		courses:  service.NewCourseService(courseRepo, studentRepo, activity, validate, logger),
		faculty:  service.NewFacultyService(facultyRepo, courseRepo, activity, validate, logger),
	}
	if err := seeder.run(ctx); err != nil {
		log.Fatalf("failed to seed demo data: %v", err)
	}
	logger.Info().
		Int("faculty", len(demoFaculty)).
		Int("courses", len(demoCourses)).
		Int("students", len(demoStudents)).
		Msg("demo data inserted")
}

type demoSeeder struct {
	actor    service.Actor
	students service.StudentService
	courses  service.CourseService
	faculty  service.FacultyService
}

func (s demoSeeder) run(ctx context.Context) error {
	facultyIDs := make(map[string]uint, len(demoFaculty))
	for _, name := range demoFaculty {
		member, err := s.faculty.Create(ctx, s.actor, dto.CreateFacultyRequest{Name: name})
		if err != nil {
			return err
		}
		facultyIDs[name] = member.ID
	}

	courseIDs := make(map[string]uint, len(demoCourses))
	for _, item := range demoCourses {
		req := dto.CreateCourseRequest{Name: item.name}
		if id, ok := facultyIDs[item.faculty]; ok {
			req.FacultyID = &id
		}
		course, err := s.courses.Create(ctx, s.actor, req)
		if err != nil {
			return err
		}
		courseIDs[item.name] = course.ID
	}

	for _, item := range demoStudents {
		student, err := s.students.Create(ctx, s.actor, dto.CreateStudentRequest{Name: item.name, Year: item.year})
		if err != nil {
			return err
		}
		for courseName, value := range item.grades {
			courseID := courseIDs[courseName]
			if _, err := s.courses.AssignStudent(ctx, s.actor, dto.EnrollmentRequest{StudentID: student.ID, CourseID: courseID}); err != nil {
				return err
			}
			grade := value
			if _, err := s.students.UpdateGrade(ctx, s.actor, dto.UpdateGradeRequest{StudentID: student.ID, CourseID: courseID, Grade: &grade}); err != nil {
				return err
			}
		}
	}
	return nil
}
