package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wordbank/dictionary/config"
	"github.com/wordbank/dictionary/internal/db"
	"github.com/wordbank/dictionary/internal/store"
	"github.com/wordbank/dictionary/types"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event types.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) recorded() []types.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type memoryImages struct {
	objects map[string][]byte
}

func (m *memoryImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type fixture struct {
	categoryRepo *store.CategoryRepository
	users        *UserService
	categories   *CategoryService
	words        *WordService
	images       *memoryImages
	events       *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	var cfg config.Config
	cfg.Database.Driver = db.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "dictionary.db")

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := conn.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	userRepo := store.NewUserRepository(conn)
	categoryRepo := store.NewCategoryRepository(conn)
	events := &recordingPublisher{}
	images := &memoryImages{objects: map[string][]byte{}}

	return fixture{
		categoryRepo: categoryRepo,
		users:        NewUserService(userRepo, "student").WithHashCost(bcrypt.MinCost),
		categories:   NewCategoryService(categoryRepo, events),
		words:        NewWordService(store.NewWordRepository(conn), categoryRepo, userRepo, images, events, zerolog.Nop()),
		images:       images,
		events:       events,
	}
}

func validSignup(email string) SignupRequest {
	return SignupRequest{
		FirstName:       "Mere",
		LastName:        "Walker",
		Email:           email,
		Password:        "kiaora123",
		ConfirmPassword: "kiaora123",
	}
}

func assertMessage(t *testing.T, err error, want string) {
	t.Helper()
	msg, ok := UserMessage(err)
	if !ok {
		t.Fatalf("expected validation error %q, got %v", want, err)
	}
	if msg != want {
		t.Fatalf("expected message %q, got %q", want, msg)
	}
}

func TestSignupRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		email   string
		checked bool
		want    int
	}{
		{"checkbox checked", "teacher@school.nz", true, types.RoleTeacher},
		{"checkbox absent", "parent@school.nz", false, types.RoleStudent},
		{"student marker beats checkbox", "kid.student@school.nz", true, types.RoleStudent},
		{"marker is case insensitive", "Kid2.STUDENT@school.nz", false, types.RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup(tt.email)
			req.TeacherChecked = tt.checked
			user, err := f.users.Signup(ctx, req)
			if err != nil {
				t.Fatalf("signup: %v", err)
			}
			if user.Teacher != tt.want {
				t.Fatalf("expected role %d, got %d", tt.want, user.Teacher)
			}
			if user.Email != strings.ToLower(tt.email) {
				t.Fatalf("expected lowercased email, got %q", user.Email)
			}
		})
	}
}

func TestSignupRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.users.Signup(ctx, validSignup("taken@school.nz")); err != nil {
		t.Fatalf("seed signup: %v", err)
	}

	mismatch := validSignup("a@school.nz")
	mismatch.ConfirmPassword = "different1"
	short := validSignup("b@school.nz")
	short.Password, short.ConfirmPassword = "short", "short"
	macrons := validSignup("m@school.nz")
	macrons.Password, macrons.ConfirmPassword = "āēīōū", "āēīōū"
	longName := validSignup("n@school.nz")
	longName.LastName = strings.Repeat("a", 51)
	noName := validSignup("c@school.nz")
	noName.FirstName = "  "
	badEmail := validSignup("not-an-email")
	duplicate := validSignup(" TAKEN@school.nz ")

	tests := []struct {
		name string
		req  SignupRequest
		want string
	}{
		{"passwords differ", mismatch, "Passwords do not match"},
		{"password too short", short, "Password must be at least 8 characters"},
		{"password short in characters", macrons, "Password must be at least 8 characters"},
		{"last name too long", longName, "Names must be 50 characters or fewer"},
		{"missing name", noName, "Please enter your first and last name"},
		{"invalid email", badEmail, "Please enter a valid email address"},
		{"duplicate email", duplicate, "Email is already used"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Signup(ctx, tt.req)
			assertMessage(t, err, tt.want)
		})
	}
}

func TestSignupCountsCharacters(t *testing.T) {
	f := newFixture(t)

	req := validSignup("wh@school.nz")
	req.Password, req.ConfirmPassword = "whānauā1", "whānauā1"
	req.FirstName = strings.Repeat("ā", NameMaxLength)
	user, err := f.users.Signup(context.Background(), req)
	if err != nil {
		t.Fatalf("expected macron password and name to be accepted, got %v", err)
	}
	if _, err := f.users.Login(context.Background(), "wh@school.nz", "whānauā1"); err != nil {
		t.Fatalf("login with macron password: %v", err)
	}
	if user.FirstName != req.FirstName {
		t.Fatalf("unexpected first name %q", user.FirstName)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.Signup(ctx, validSignup("mere@school.nz"))
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, err := f.users.Login(ctx, " MERE@school.nz", "kiaora123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, user.ID)
	}

	if _, err := f.users.Login(ctx, "mere@school.nz", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := f.users.Login(ctx, "nobody@school.nz", "kiaora123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestFieldRules(t *testing.T) {
	tests := []struct {
		field   string
		raw     string
		want    any
		wantErr string
	}{
		{"word_name", "  Kōrero ", "kōrero", ""},
		{"word_name", "", nil, "word_name cannot be empty"},
		{"word_name", strings.Repeat("a", 86), nil, "word_name must be 85 characters or fewer"},
		{"english", "To speak", "To speak", ""},
		{"description", "", types.DefaultDescription, ""},
		{"description", strings.Repeat("d", 301), nil, "description must be 300 characters or fewer"},
		{"level", "10", 10, ""},
		{"level", "0", nil, "level must be a number between 1 and 10"},
		{"level", "eleven", nil, "level must be a number between 1 and 10"},
		{"category_id", "-2", nil, "category_id must be a valid id"},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.raw, func(t *testing.T) {
			rule, err := LookupField(tt.field)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			got, err := rule.Normalize(tt.raw)
			if tt.wantErr != "" {
				assertMessage(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	_, err := LookupField("user_id")
	assertMessage(t, err, "user_id is not an editable field")
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	animals, err := f.categories.Create(ctx, 1, "  Animals ")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if animals.Name != "animals" {
		t.Fatalf("expected lowercased name, got %q", animals.Name)
	}

	_, err = f.categories.Create(ctx, 1, "ANIMALS")
	assertMessage(t, err, "Category already exists")

	_, err = f.categories.Create(ctx, 1, strings.Repeat("c", 21))
	assertMessage(t, err, "Category name must be 20 characters or fewer")

	_, err = f.words.Create(ctx, 1, WordInput{
		Name: "kurī", English: "dog", Level: "2", CategoryID: strconv.Itoa(animals.ID),
	}, nil)
	if err != nil {
		t.Fatalf("create word: %v", err)
	}

	_, err = f.categories.Delete(ctx, 1, animals.ID)
	assertMessage(t, err, "Category still has words. Delete or move them first")

	empty, err := f.categories.Create(ctx, 1, "colours")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	deleted, err := f.categories.Delete(ctx, 1, empty.ID)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
	}
	deleted, err = f.categories.Delete(ctx, 1, empty.ID)
	if err != nil || deleted {
		t.Fatalf("expected second delete to be a no-op, got %v %v", deleted, err)
	}

	want := []types.EventType{types.EventCategoryCreated, types.EventWordCreated, types.EventCategoryCreated, types.EventCategoryDeleted}
	got := f.events.recorded()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

func TestWordLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author, err := f.users.Signup(ctx, validSignup("mere@school.nz"))
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	food, err := f.categories.Create(ctx, author.ID, "food")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	upload := &ImageUpload{Filename: "C:\\pics\\Red Apple.PNG", Size: 3, Body: bytes.NewReader([]byte("png"))}
	word, err := f.words.Create(ctx, author.ID, WordInput{
		Name: "Āporo", English: "apple", Level: "1", CategoryID: strconv.Itoa(food.ID),
	}, upload)
	if err != nil {
		t.Fatalf("create word: %v", err)
	}
	if !strings.HasPrefix(word.Image, UploadPrefix) || !strings.HasSuffix(word.Image, "/red-apple.png") {
		t.Fatalf("unexpected image key %q", word.Image)
	}
	if _, ok := f.images.objects[word.Image]; !ok {
		t.Fatalf("expected image to be stored")
	}

	view, err := f.words.Get(ctx, word.ID)
	if err != nil {
		t.Fatalf("get word: %v", err)
	}
	if view.Name != "āporo" || view.Description != types.DefaultDescription {
		t.Fatalf("unexpected word: %+v", view.Word)
	}
	if view.Author != "Mere Walker" || view.CategoryName != "food" || view.AltText != "A picture of red-apple" {
		t.Fatalf("unexpected view: %+v", view)
	}

	if err := f.words.UpdateField(ctx, author.ID, word.ID, "level", "7"); err != nil {
		t.Fatalf("update level: %v", err)
	}
	err = f.words.UpdateField(ctx, author.ID, word.ID, "category_id", "999")
	assertMessage(t, err, "Category not found")

	byLevel, err := f.words.ListByLevel(ctx, 7)
	if err != nil || len(byLevel) != 1 {
		t.Fatalf("expected one level 7 word, got %d (%v)", len(byLevel), err)
	}
	_, err = f.words.ListByLevel(ctx, 11)
	assertMessage(t, err, "Level must be between 1 and 10")

	found, err := f.words.Search(ctx, "APPLE")
	if err != nil || len(found) != 1 {
		t.Fatalf("expected search to find the word, got %d (%v)", len(found), err)
	}
	if _, err := f.words.ListByCategory(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing category, got %v", err)
	}

	deleted, err := f.words.Delete(ctx, author.ID, word.ID)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
	}
	if len(f.images.objects) != 0 {
		t.Fatalf("expected uploaded image to be removed")
	}
	deleted, err = f.words.Delete(ctx, author.ID, word.ID)
	if err != nil || deleted {
		t.Fatalf("expected second delete to be a no-op, got %v %v", deleted, err)
	}
}

func TestWordViewFallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	misc, err := f.categories.Create(ctx, 0, "misc")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	word, err := f.words.Create(ctx, 0, WordInput{
		Name: "kai", English: "food", Level: "3", CategoryID: strconv.Itoa(misc.ID),
	}, nil)
	if err != nil {
		t.Fatalf("create word: %v", err)
	}

	view, err := f.words.Get(ctx, word.ID)
	if err != nil {
		t.Fatalf("get word: %v", err)
	}
	if view.Author != "Unknown" || view.AltText != types.NoImageAltText {
		t.Fatalf("unexpected fallbacks: %+v", view)
	}
}

func TestImageKeyRejectsUnknownTypes(t *testing.T) {
	_, _, err := imageKey("notes.txt")
	assertMessage(t, err, "Image must be a png, jpg, gif or webp file")

	key, contentType, err := imageKey("../../Cat.JPEG")
	if err != nil {
		t.Fatalf("image key: %v", err)
	}
	if contentType != "image/jpeg" || !strings.HasSuffix(key, "/cat.jpeg") {
		t.Fatalf("unexpected key %q (%s)", key, contentType)
	}
}

// staleCounter reports no words, as if one was added after the count was taken.
type staleCounter struct {
	*store.CategoryRepository
}

func (staleCounter) CountWords(context.Context, int) (int, error) { return 0, nil }

func TestCategoryDeleteRacesWordInsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	birds, err := f.categories.Create(ctx, 1, "birds")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := f.words.Create(ctx, 1, WordInput{
		Name: "kiwi", English: "kiwi", Level: "1", CategoryID: strconv.Itoa(birds.ID),
	}, nil); err != nil {
		t.Fatalf("create word: %v", err)
	}

	racing := NewCategoryService(staleCounter{f.categoryRepo}, nil)
	deleted, err := racing.Delete(ctx, 1, birds.ID)
	if deleted {
		t.Fatalf("expected category to survive")
	}
	assertMessage(t, err, "Category still has words. Delete or move them first")
	if !errors.Is(err, store.ErrReferenced) {
		t.Fatalf("expected ErrReferenced to be wrapped, got %v", err)
	}
}

func TestUploadedImageKeptWhileShared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	animals, err := f.categories.Create(ctx, 1, "animals")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	category := strconv.Itoa(animals.ID)

	first, err := f.words.Create(ctx, 1, WordInput{Name: "ngeru", English: "cat", Level: "1", CategoryID: category},
		&ImageUpload{Filename: "cat.png", Size: 3, Body: bytes.NewReader([]byte("cat"))})
	if err != nil {
		t.Fatalf("create first word: %v", err)
	}
	second, err := f.words.Create(ctx, 1, WordInput{Name: "poti", English: "cat", Level: "1", CategoryID: category}, nil)
	if err != nil {
		t.Fatalf("create second word: %v", err)
	}
	if err := f.words.UpdateField(ctx, 1, second.ID, "image", first.Image); err != nil {
		t.Fatalf("share image: %v", err)
	}

	if _, err := f.words.Delete(ctx, 1, second.ID); err != nil {
		t.Fatalf("delete second word: %v", err)
	}
	if _, ok := f.images.objects[first.Image]; !ok {
		t.Fatalf("image still used by %q must be kept", first.Name)
	}

	if err := f.words.UpdateField(ctx, 1, first.ID, "image", "https://example.org/cat.png"); err != nil {
		t.Fatalf("replace image: %v", err)
	}
	if _, ok := f.images.objects[first.Image]; ok {
		t.Fatalf("replaced upload should be deleted")
	}
}

func TestUpdateReleasesReplacedUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	food, err := f.categories.Create(ctx, 1, "food")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	in := WordInput{Name: "āporo", English: "apple", Level: "1", CategoryID: strconv.Itoa(food.ID)}
	word, err := f.words.Create(ctx, 1, in, &ImageUpload{Filename: "apple.jpg", Size: 5, Body: bytes.NewReader([]byte("apple"))})
	if err != nil {
		t.Fatalf("create word: %v", err)
	}

	in.Image = word.Image
	if _, err := f.words.Update(ctx, 1, word.ID, in); err != nil {
		t.Fatalf("update keeping image: %v", err)
	}
	if _, ok := f.images.objects[word.Image]; !ok {
		t.Fatalf("unchanged image must be kept")
	}

	in.Image = "apple.png"
	if _, err := f.words.Update(ctx, 1, word.ID, in); err != nil {
		t.Fatalf("update replacing image: %v", err)
	}
	if len(f.images.objects) != 0 {
		t.Fatalf("expected replaced upload to be deleted, still have %d", len(f.images.objects))
	}
}
