package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Nenorae/PIFACE/internal/config"
	"github.com/Nenorae/PIFACE/internal/database/mariadb"
	"github.com/Nenorae/PIFACE/internal/database/postgres"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed students and schedules into PostgreSQL",
	Long: `Seed students and schedules into PostgreSQL.
With --sis-dsn and --course, students and schedules are imported from
the campus information system (read-only MariaDB access). With
--from-dataset, student rows are created from the dataset folder names
so recognized names resolve to enrolled students.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("sis-dsn", "", "MariaDB DSN of the campus information system")
	seedCmd.Flags().String("course", "", "Course code to import enrollments and schedules for")
	seedCmd.Flags().Bool("from-dataset", false, "Seed students from dataset folder names instead")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Connect(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	if mustGetBool(cmd, "from-dataset") {
		return seedFromDataset(cmd.Context(), pool, cfg.DatasetPath())
	}

	sisDSN := mustGetString(cmd, "sis-dsn")
	course := mustGetString(cmd, "course")
	if sisDSN == "" || course == "" {
		return errors.New("either --from-dataset or both --sis-dsn and --course are required")
	}
	return seedFromSIS(cmd.Context(), pool, sisDSN, course)
}

func seedFromSIS(ctx context.Context, pool *postgres.Pool, sisDSN, course string) error {
	sis, err := mariadb.NewPool(sisDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to the campus information system: %w", err)
	}
	defer sis.Close()

	schedules, err := sis.ListCourseSchedules(ctx, course)
	if err != nil {
		return fmt.Errorf("failed to list schedules for %s: %w", course, err)
	}
	if len(schedules) == 0 {
		return fmt.Errorf("course %s has no schedules", course)
	}

	scheduleRepo := postgres.NewScheduleRepository(pool)
	for _, s := range schedules {
		id, err := scheduleRepo.CreateSchedule(ctx, &s)
		if err != nil {
			return fmt.Errorf("failed to create schedule for %s: %w", s.CourseCode, err)
		}
		fmt.Printf("Schedule %d: %s %s (%s %s, %s)\n", id, s.CourseCode, s.CourseName, s.Day, s.StartTime, s.Lecturer)
	}

	names, err := sis.ListEnrolledStudents(ctx, course)
	if err != nil {
		return fmt.Errorf("failed to list enrollments for %s: %w", course, err)
	}

	studentRepo := postgres.NewStudentRepository(pool)
	for _, name := range names {
		if _, err := studentRepo.UpsertStudent(ctx, name); err != nil {
			return fmt.Errorf("failed to upsert student %q: %w", name, err)
		}
	}

	fmt.Printf("Imported %d schedules and %d students for %s\n", len(schedules), len(names), course)
	return printEnrolledTotal(ctx, studentRepo)
}

// printEnrolledTotal reads the students table back so the operator sees the
// post-seed enrollment count, not just the size of this import.
func printEnrolledTotal(ctx context.Context, repo *postgres.StudentRepository) error {
	students, err := repo.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list enrolled students: %w", err)
	}
	fmt.Printf("Students enrolled in total: %d\n", len(students))
	return nil
}

// seedFromDataset creates a student row per dataset folder. Useful for
// classes that are not in the campus system, like short courses.
func seedFromDataset(ctx context.Context, pool *postgres.Pool, datasetDir string) error {
	entries, err := os.ReadDir(datasetDir)
	if err != nil {
		return fmt.Errorf("reading dataset directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return fmt.Errorf("dataset directory %s contains no person folders", datasetDir)
	}

	studentRepo := postgres.NewStudentRepository(pool)
	for _, name := range names {
		if _, err := studentRepo.UpsertStudent(ctx, name); err != nil {
			return fmt.Errorf("failed to upsert student %q: %w", name, err)
		}
	}

	fmt.Printf("Seeded %d students from %s\n", len(names), datasetDir)
	return printEnrolledTotal(ctx, studentRepo)
}
