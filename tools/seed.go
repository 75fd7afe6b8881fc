// Package main provides a command-line seeder that loads sample content
// into the Parlons database from a YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/database"
)

// SeedFile is the top-level structure of a seed YAML document.
type SeedFile struct {
	Users        []SeedUser        `yaml:"users"`
	Participants []SeedParticipant `yaml:"participants"`
	Simulations  []SeedSimulation  `yaml:"simulations"`
}

// SeedUser describes a user account to create.
type SeedUser struct {
	Username string `yaml:"username"`
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// SeedParticipant describes a speaker owned by a user.
type SeedParticipant struct {
	SpeakerName string `yaml:"speaker_name"`
	IsSystem    bool   `yaml:"is_system"`
	User        string `yaml:"user"`
}

// SeedSimulation describes a simulation with nested dialogues and lines.
type SeedSimulation struct {
	Title     string         `yaml:"title"`
	Language  string         `yaml:"language"`
	Dialogues []SeedDialogue `yaml:"dialogues"`
}

// SeedDialogue describes a dialogue within a simulation.
type SeedDialogue struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Difficulty  string     `yaml:"difficulty_level"`
	Lines       []SeedLine `yaml:"lines"`
}

// SeedLine describes a single line of a dialogue, identified by speaker name.
type SeedLine struct {
	Speaker string `yaml:"speaker"`
	Text    string `yaml:"text"`
}

func main() {
	var seedPath string
	flag.StringVar(&seedPath, "file", "seed.yaml", "path to the seed YAML file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	data, err := os.ReadFile(seedPath) // #nosec G304 - path is an operator-supplied CLI flag
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := apply(ctx, db, &seed); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d participants, %d simulations",
		len(seed.Users), len(seed.Participants), len(seed.Simulations))
}

// apply inserts the seed content in dependency order. Existing users and
// speakers are reused so the seeder can be run repeatedly.
func apply(ctx context.Context, db *sqlx.DB, seed *SeedFile) error {
	userIDs := make(map[string]int64)
	for _, u := range seed.Users {
		id, err := upsertUser(ctx, db, u)
		if err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
		userIDs[u.Username] = id
	}

	speakerIDs := make(map[string]int64)
	for _, p := range seed.Participants {
		ownerID, ok := userIDs[p.User]
		if !ok {
			if err := db.GetContext(ctx, &ownerID,
				"SELECT id FROM users WHERE username = ?", p.User); err != nil {
				return fmt.Errorf("participant %q: unknown user %q", p.SpeakerName, p.User)
			}
		}
		id, err := upsertParticipant(ctx, db, ownerID, p)
		if err != nil {
			return fmt.Errorf("participant %q: %w", p.SpeakerName, err)
		}
		speakerIDs[p.SpeakerName] = id
	}

	for _, sim := range seed.Simulations {
		if err := insertSimulation(ctx, db, sim, speakerIDs); err != nil {
			return fmt.Errorf("simulation %q: %w", sim.Title, err)
		}
	}

	return nil
}

func upsertUser(ctx context.Context, db *sqlx.DB, u SeedUser) (int64, error) {
	var id int64
	err := db.GetContext(ctx, &id, "SELECT id FROM users WHERE username = ?", u.Username)
	if err == nil {
		return id, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	var email interface{}
	if u.Email != "" {
		email = u.Email
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO users (username, full_name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)",
		u.Username, u.FullName, email, string(hash), u.Role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func upsertParticipant(ctx context.Context, db *sqlx.DB, ownerID int64, p SeedParticipant) (int64, error) {
	var id int64
	err := db.GetContext(ctx, &id,
		"SELECT id FROM participants WHERE user_id = ? AND speaker_name = ?", ownerID, p.SpeakerName)
	if err == nil {
		return id, nil
	}

	res, err := db.ExecContext(ctx,
		"INSERT INTO participants (user_id, speaker_name, is_system) VALUES (?, ?, ?)",
		ownerID, p.SpeakerName, p.IsSystem)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertSimulation(ctx context.Context, db *sqlx.DB, sim SeedSimulation, speakerIDs map[string]int64) error {
	language := sim.Language
	if language == "" {
		language = "fr"
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO simulations (title, language) VALUES (?, ?)", sim.Title, language)
	if err != nil {
		return err
	}
	simID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for order, d := range sim.Dialogues {
		difficulty := d.Difficulty
		if difficulty == "" {
			difficulty = "beginner"
		}
		res, err := db.ExecContext(ctx,
			"INSERT INTO dialogues (simulation_id, title, description, difficulty_level, display_order) VALUES (?, ?, ?, ?, ?)",
			simID, d.Title, d.Description, difficulty, order+1)
		if err != nil {
			return fmt.Errorf("dialogue %q: %w", d.Title, err)
		}
		dialogueID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for lineOrder, l := range d.Lines {
			speakerID, ok := speakerIDs[l.Speaker]
			if !ok {
				return fmt.Errorf("dialogue %q: unknown speaker %q", d.Title, l.Speaker)
			}
			if _, err := db.ExecContext(ctx,
				"INSERT INTO dialogue_lines (dialogue_id, participant_id, display_order, text) VALUES (?, ?, ?, ?)",
				dialogueID, speakerID, lineOrder+1, l.Text); err != nil {
				return fmt.Errorf("dialogue %q line %d: %w", d.Title, lineOrder+1, err)
			}
			if _, err := db.ExecContext(ctx,
				"INSERT IGNORE INTO dialogue_participants (dialogue_id, participant_id) VALUES (?, ?)",
				dialogueID, speakerID); err != nil {
				return fmt.Errorf("dialogue %q: %w", d.Title, err)
			}
		}
	}

	return nil
}
