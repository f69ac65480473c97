package devapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

var errNotFound = errors.New("not found")

type fileRecord struct {
	meta      student.File
	studentID int64
	data      []byte
}

type downloadGrant struct {
	fileID  int64
	expires time.Time
}

// store keeps every record in memory. It is reset on restart.
type store struct {
	mu sync.RWMutex

	details  student.Details
	students map[int64]student.Student
	files    map[int64]fileRecord
	tokens   map[string]string
	grants   map[string]downloadGrant

	nextStudentID int64
	nextFileID    int64
	now           func() time.Time
}

func newStore() *store {
	return &store{
		details:       seedDetails(),
		students:      map[int64]student.Student{},
		files:         map[int64]fileRecord{},
		tokens:        map[string]string{},
		grants:        map[string]downloadGrant{},
		nextStudentID: 1,
		nextFileID:    1,
		now:           time.Now,
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *store) issueToken(username string) string {
	token := newToken()
	s.mu.Lock()
	s.tokens[token] = username
	s.mu.Unlock()
	return token
}

func (s *store) lookupToken(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.tokens[token]
	return user, ok
}

func (s *store) listStudents() []student.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]student.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *store) getStudent(id int64) (student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return student.Student{}, errNotFound
	}
	return st, nil
}

func (s *store) createStudent(st student.Student) student.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.nextStudentID
	s.nextStudentID++
	st.CreatedAt = s.now().UTC().Format(time.RFC3339)
	s.students[st.ID] = st
	return st
}

func (s *store) replaceStudent(st student.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.students[st.ID]
	if !ok {
		return errNotFound
	}
	st.CreatedAt = prev.CreatedAt
	s.students[st.ID] = st
	return nil
}

// deleteStudent also drops the student's attachments.
func (s *store) deleteStudent(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return errNotFound
	}
	delete(s.students, id)
	for fid, f := range s.files {
		if f.studentID == id {
			delete(s.files, fid)
		}
	}
	return nil
}

func (s *store) listFiles(studentID int64) []student.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []student.File
	for _, f := range s.files {
		if f.studentID == studentID {
			out = append(out, f.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if out == nil {
		out = []student.File{}
	}
	return out
}

func (s *store) addFile(studentID int64, meta student.File, data []byte) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta.ID = s.nextFileID
	s.nextFileID++
	meta.FileSize = int64(len(data))
	meta.UploadedAt = s.now().UTC().Format(time.RFC3339)
	s.files[meta.ID] = fileRecord{meta: meta, studentID: studentID, data: data}
	return meta.ID
}

func (s *store) getFile(id int64) (fileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return fileRecord{}, errNotFound
	}
	return f, nil
}

func (s *store) deleteFile(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return errNotFound
	}
	delete(s.files, id)
	return nil
}

// grantDownload mints a signature that lets the raw endpoint serve one file
// without an Authorization header until it expires.
func (s *store) grantDownload(fileID int64, ttl time.Duration) string {
	sig := newToken()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, g := range s.grants {
		if now.After(g.expires) {
			delete(s.grants, k)
		}
	}
	s.grants[sig] = downloadGrant{fileID: fileID, expires: now.Add(ttl)}
	return sig
}

func (s *store) checkGrant(sig string, fileID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[sig]
	return ok && g.fileID == fileID && !s.now().After(g.expires)
}

func seedDetails() student.Details {
	var d student.Details
	for i, name := range []string{"Male", "Female", "Non-binary", "Transgender Male", "Transgender Female", "Genderfluid", "Agender", "Other", "Prefer not to say"} {
		d.GenderIdentities = append(d.GenderIdentities, student.GenderIdentity{ID: int64(i + 1), Gender: name})
	}
	for i, name := range []string{
		"D - Dominance", "I - Influence", "S - Steadiness", "C - Conscientiousness",
		"DI - Dominance/Influence", "DC - Dominance/Conscientiousness", "ID - Influence/Dominance",
		"IS - Influence/Steadiness", "SI - Steadiness/Influence", "SC - Steadiness/Conscientiousness",
		"CD - Conscientiousness/Dominance", "CS - Conscientiousness/Steadiness",
	} {
		d.DiscAssessments = append(d.DiscAssessments, student.AssessmentType{ID: int64(i + 1), TypeName: name})
	}
	for i, name := range []string{
		"INTJ - The Architect", "INTP - The Thinker", "ENTJ - The Commander", "ENTP - The Debater",
		"INFJ - The Advocate", "INFP - The Mediator", "ENFJ - The Protagonist", "ENFP - The Campaigner",
		"ISTJ - The Logistician", "ISFJ - The Protector", "ESTJ - The Executive", "ESFJ - The Consul",
		"ISTP - The Virtuoso", "ISFP - The Adventurer", "ESTP - The Entrepreneur", "ESFP - The Entertainer",
	} {
		d.SixteenTypeAssessments = append(d.SixteenTypeAssessments, student.AssessmentType{ID: int64(i + 1), TypeName: name})
	}
	for i, name := range []string{
		"Type 1 - The Perfectionist", "Type 2 - The Helper", "Type 3 - The Achiever",
		"Type 4 - The Individualist", "Type 5 - The Investigator", "Type 6 - The Loyalist",
		"Type 7 - The Enthusiast", "Type 8 - The Challenger", "Type 9 - The Peacemaker",
	} {
		d.EnneagramResults = append(d.EnneagramResults, student.EnneagramResult{ID: int64(i + 1), ResultName: name})
	}
	for i, name := range []string{"OSHA 10-Hour Construction", "OSHA 30-Hour Construction", "OSHA 10-Hour General Industry", "OSHA 30-Hour General Industry"} {
		d.OshaTypes = append(d.OshaTypes, student.OshaType{ID: int64(i + 1), Name: name})
	}
	for i, name := range []string{
		"WIOA (Workforce Innovation and Opportunity Act)", "Pell Grant", "State Grant", "Federal Grant",
		"Scholarship", "Self-Pay", "Employer Sponsored", "Trade Adjustment Assistance (TAA)",
		"Veterans Benefits", "Other",
	} {
		d.FundingSources = append(d.FundingSources, student.FundingSource{ID: int64(i + 1), Name: name})
	}
	return d
}
