package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dcsil/DoseMate-backend/internal"
)

type FileStorage struct {
	users       map[string]*internal.User           // token -> User
	medications map[string]*internal.Medication     // id -> Medication
	schedules   map[string]*internal.Schedule       // id -> Schedule
	userScheds  map[string][]*internal.Schedule     // userID -> schedules
	doses       map[string]*internal.DoseInstance   // id -> DoseInstance
	schedDoses  map[string][]*internal.DoseInstance // scheduleID -> doses (scheduled desc)
	userDoses   map[string][]*internal.DoseInstance // userID -> doses (scheduled desc)

	mu sync.RWMutex

	usersFile      string
	medsFile       string
	schedulesFile  string
	dosesFile      string
	saveMedsChan   chan struct{}
	saveSchedsChan chan struct{}
	saveDosesChan  chan struct{}
	shutdownChan   chan struct{}
	saveDelay      time.Duration
	logger         internal.Logger
}

func NewFileStorage(usersFile, medsFile, schedulesFile, dosesFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		users:          make(map[string]*internal.User),
		medications:    make(map[string]*internal.Medication),
		schedules:      make(map[string]*internal.Schedule),
		userScheds:     make(map[string][]*internal.Schedule),
		doses:          make(map[string]*internal.DoseInstance),
		schedDoses:     make(map[string][]*internal.DoseInstance),
		userDoses:      make(map[string][]*internal.DoseInstance),
		usersFile:      usersFile,
		medsFile:       medsFile,
		schedulesFile:  schedulesFile,
		dosesFile:      dosesFile,
		saveMedsChan:   make(chan struct{}, 1),
		saveSchedsChan: make(chan struct{}, 1),
		saveDosesChan:  make(chan struct{}, 1),
		shutdownChan:   make(chan struct{}),
		saveDelay:      500 * time.Millisecond,
		logger:         logger,
	}

	if err := s.loadUsers(); err != nil {
		logger.Errorf("storage: failed to load users: %v", err)
		return nil, err
	}
	if err := s.loadMedications(); err != nil {
		logger.Errorf("storage: failed to load medications: %v", err)
		return nil, err
	}
	if err := s.loadSchedules(); err != nil {
		logger.Errorf("storage: failed to load schedules: %v", err)
		return nil, err
	}
	if err := s.loadDoses(); err != nil {
		logger.Errorf("storage: failed to load dose logs: %v", err)
		return nil, err
	}

	go s.saveWorker(s.saveMedsChan, s.saveMedications, "medications")
	go s.saveWorker(s.saveSchedsChan, s.saveSchedules, "schedules")
	go s.saveWorker(s.saveDosesChan, s.saveDoses, "dose logs")

	return s, nil
}

func decodeJSONFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadUsers() error {
	var users []*internal.User
	if err := decodeJSONFile(s.usersFile, &users); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.Token] = u
	}
	return nil
}

func (s *FileStorage) loadMedications() error {
	var meds []*internal.Medication
	if err := decodeJSONFile(s.medsFile, &meds); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meds {
		s.medications[m.ID] = m
	}
	return nil
}

func (s *FileStorage) loadSchedules() error {
	var scheds []*internal.Schedule
	if err := decodeJSONFile(s.schedulesFile, &scheds); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range scheds {
		s.schedules[sc.ID] = sc
		s.userScheds[sc.UserID] = append(s.userScheds[sc.UserID], sc)
	}
	return nil
}

func (s *FileStorage) loadDoses() error {
	var doses []*internal.DoseInstance
	if err := decodeJSONFile(s.dosesFile, &doses); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range doses {
		s.doses[d.ID] = d
		s.schedDoses[d.ScheduleID] = append(s.schedDoses[d.ScheduleID], d)
		s.userDoses[d.UserID] = append(s.userDoses[d.UserID], d)
	}
	for id := range s.schedDoses {
		sortDosesDesc(s.schedDoses[id])
	}
	for id := range s.userDoses {
		sortDosesDesc(s.userDoses[id])
	}
	return nil
}

func sortDosesDesc(doses []*internal.DoseInstance) {
	sort.Slice(doses, func(i, j int) bool {
		return doses[i].ScheduledTime.After(doses[j].ScheduledTime)
	})
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveMedications() error {
	s.mu.RLock()
	meds := make([]*internal.Medication, 0, len(s.medications))
	for _, m := range s.medications {
		meds = append(meds, m)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.medsFile, meds)
}

func (s *FileStorage) saveSchedules() error {
	s.mu.RLock()
	scheds := make([]*internal.Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		scheds = append(scheds, sc)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.schedulesFile, scheds)
}

func (s *FileStorage) saveDoses() error {
	s.mu.RLock()
	doses := make([]*internal.DoseInstance, 0, len(s.doses))
	for _, d := range s.doses {
		doses = append(doses, d)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.dosesFile, doses)
}

func (s *FileStorage) saveWorker(signal chan struct{}, save func() error, what string) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", what, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	// Flush pending data synchronously on shutdown.
	if err := s.saveMedications(); err != nil {
		return err
	}
	if err := s.saveSchedules(); err != nil {
		return err
	}
	if err := s.saveDoses(); err != nil {
		return err
	}
	return nil
}

func signalSave(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// --- ScheduleRepository ---

func (s *FileStorage) ListSchedules(ctx context.Context, userID string) ([]internal.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedsPtr := s.userScheds[userID]
	scheds := make([]internal.Schedule, len(schedsPtr))
	for i, sc := range schedsPtr {
		scheds[i] = *sc
	}
	return scheds, nil
}

func (s *FileStorage) GetSchedule(ctx context.Context, scheduleID, userID string) (*internal.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schedules[scheduleID]
	if !ok || sc.UserID != userID {
		return nil, fmt.Errorf("storage: schedule %s: %w", scheduleID, internal.ErrNotFound)
	}
	out := *sc
	return &out, nil
}

func (s *FileStorage) SaveSchedule(ctx context.Context, sched *internal.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.schedules[sched.ID]
	if ok {
		*existing = *sched
	} else {
		cp := *sched
		s.schedules[sched.ID] = &cp
		s.userScheds[sched.UserID] = append(s.userScheds[sched.UserID], &cp)
	}
	signalSave(s.saveSchedsChan)
	return nil
}

// --- DoseRepository ---

func (s *FileStorage) ListDoseInstances(ctx context.Context, userID string, from, to time.Time) ([]internal.DoseInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var doses []internal.DoseInstance
	for _, d := range s.userDoses[userID] {
		if !d.ScheduledTime.Before(from) && !d.ScheduledTime.After(to) {
			doses = append(doses, *d)
		}
	}
	sort.Slice(doses, func(i, j int) bool {
		return doses[i].ScheduledTime.Before(doses[j].ScheduledTime)
	})
	return doses, nil
}

func (s *FileStorage) ListRecentTaken(ctx context.Context, scheduleID string, limit int) ([]internal.DoseInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var doses []internal.DoseInstance
	for _, d := range s.schedDoses[scheduleID] {
		if d.Status != internal.DoseStatusTaken || d.TakenTime == nil {
			continue
		}
		doses = append(doses, *d)
		if len(doses) == limit {
			break
		}
	}
	return doses, nil
}

func (s *FileStorage) GetDoseInstance(ctx context.Context, doseID, userID string) (*internal.DoseInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doses[doseID]
	if !ok || d.UserID != userID {
		return nil, fmt.Errorf("storage: dose instance %s: %w", doseID, internal.ErrNotFound)
	}
	out := *d
	return &out, nil
}

func (s *FileStorage) FindOrCreateDoseInstance(ctx context.Context, inst *internal.DoseInstance, window time.Duration) (*internal.DoseInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo := inst.ScheduledTime.Add(-window)
	hi := inst.ScheduledTime.Add(window)

	// schedDoses is scheduled-desc, so the first hit is the latest one.
	for _, d := range s.schedDoses[inst.ScheduleID] {
		if d.UserID != inst.UserID {
			continue
		}
		if !d.ScheduledTime.Before(lo) && !d.ScheduledTime.After(hi) {
			out := *d
			return &out, nil
		}
	}

	cp := *inst
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.doses[cp.ID] = &cp
	s.schedDoses[cp.ScheduleID] = append(s.schedDoses[cp.ScheduleID], &cp)
	s.userDoses[cp.UserID] = append(s.userDoses[cp.UserID], &cp)
	sortDosesDesc(s.schedDoses[cp.ScheduleID])
	sortDosesDesc(s.userDoses[cp.UserID])
	signalSave(s.saveDosesChan)
	out := cp
	return &out, nil
}

func (s *FileStorage) UpdateDoseInstance(ctx context.Context, inst *internal.DoseInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doses[inst.ID]
	if !ok {
		return fmt.Errorf("storage: dose instance %s: %w", inst.ID, internal.ErrNotFound)
	}
	*d = *inst
	// A snooze moves the scheduled time, so the indexes need re-sorting.
	sortDosesDesc(s.schedDoses[d.ScheduleID])
	sortDosesDesc(s.userDoses[d.UserID])
	signalSave(s.saveDosesChan)
	return nil
}

// --- MedicationRepository ---

func (s *FileStorage) GetMedication(ctx context.Context, medicationID string) (*internal.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.medications[medicationID]
	if !ok {
		return nil, fmt.Errorf("storage: medication %s: %w", medicationID, internal.ErrNotFound)
	}
	out := *m
	return &out, nil
}

// SaveMedication is used by seeding and tests; medication entry itself is
// handled by a separate flow.
func (s *FileStorage) SaveMedication(ctx context.Context, med *internal.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *med
	s.medications[med.ID] = &cp
	signalSave(s.saveMedsChan)
	return nil
}

// --- UserRepository ---

func (s *FileStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[token]
	if !ok {
		return nil, fmt.Errorf("storage: user: %w", internal.ErrNotFound)
	}
	out := *u
	return &out, nil
}

// --- Compile-time assertions ---
var _ ScheduleRepository = (*FileStorage)(nil)
var _ DoseRepository = (*FileStorage)(nil)
var _ MedicationRepository = (*FileStorage)(nil)
var _ UserRepository = (*FileStorage)(nil)
