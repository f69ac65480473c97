package devapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

// studentWrite is the accepted request body. Absent keys keep the stored
// value; explicit nulls clear it.
type studentWrite struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	NCCERNumber *string `json:"nccer_number"`

	StartDate          nullable[string] `json:"start_date"`
	EndDate            nullable[string] `json:"end_date"`
	OshaCompletionDate nullable[string] `json:"osha_completion_date"`

	GenderIdentityID         nullable[int64] `json:"gender_identity_id"`
	FundingSourceID          nullable[int64] `json:"funding_source_id"`
	DiscAssessmentTypeID     nullable[int64] `json:"disc_assessment_type_id"`
	SixteenTypesAssessmentID nullable[int64] `json:"sixteen_types_assessment_id"`
	EnneagramResultID        nullable[int64] `json:"enneagram_result_id"`
	OshaTypeID               nullable[int64] `json:"osha_type_id"`

	Complete50HourTraining *bool `json:"complete_50_hour_training"`
	PassedOsha10Exam       *bool `json:"passed_osha_10_exam"`
	HammerMath             *bool `json:"hammer_math"`
	EmployabilitySkills    *bool `json:"employability_skills"`
	JobInterviewSkills     *bool `json:"job_interview_skills"`
	PassedRulerAssessment  *bool `json:"passed_ruler_assessment"`

	PretestScore  nullable[int] `json:"pretest_score"`
	PosttestScore nullable[int] `json:"posttest_score"`
}

// nullable tells an absent key apart from an explicit null.
type nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *nullable[T]) UnmarshalJSON(raw []byte) error {
	n.Set = true
	if string(raw) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.listStudents())
}

func (s *Server) getStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "studentID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	st, err := s.store.getStudent(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) createStudent(w http.ResponseWriter, r *http.Request) {
	var req studentWrite
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, errs := s.apply(student.Student{}, req)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	st = s.store.createStudent(st)
	s.log.Info().Int64("student_id", st.ID).Str("by", userFromContext(r.Context())).Msg("student created")
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) updateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "studentID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	current, err := s.store.getStudent(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	var req studentWrite
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, errs := s.apply(current, req)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	if err := s.store.replaceStudent(st); err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "studentID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := s.store.deleteStudent(id); err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	s.log.Info().Int64("student_id", id).Msg("student deleted")
	w.WriteHeader(http.StatusNoContent)
}

// apply merges a write request into base and checks the stored result the
// way the production serializer does.
func (s *Server) apply(base student.Student, req studentWrite) (student.Student, fieldErrors) {
	errs := fieldErrors{}
	st := base

	if req.FullName != nil {
		st.FullName = strings.TrimSpace(*req.FullName)
	}
	if strings.TrimSpace(st.FullName) == "" {
		errs.add("full_name", "This field may not be blank.")
	} else if len(st.FullName) > 255 {
		errs.add("full_name", "Ensure this field has no more than 255 characters.")
	}
	if req.Email != nil {
		st.Email = strings.TrimSpace(*req.Email)
	}
	if req.NCCERNumber != nil {
		st.NCCERNumber = strings.TrimSpace(*req.NCCERNumber)
	}

	setDate := func(field string, in nullable[string], dst *string) {
		if !in.Set {
			return
		}
		if in.Value == nil || strings.TrimSpace(*in.Value) == "" {
			*dst = ""
			return
		}
		v := strings.TrimSpace(*in.Value)
		if _, err := time.Parse("2006-01-02", v); err != nil {
			errs.add(field, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
			return
		}
		*dst = v
	}
	setDate("start_date", req.StartDate, &st.StartDate)
	setDate("end_date", req.EndDate, &st.EndDate)
	setDate("osha_completion_date", req.OshaCompletionDate, &st.OshaCompletionDate)

	d := s.store.details
	if req.GenderIdentityID.Set {
		st.GenderIdentity = nil
		if id := req.GenderIdentityID.Value; id != nil {
			if label := d.Label(student.LookupGender, *id); label != "" {
				st.GenderIdentity = &student.GenderIdentity{ID: *id, Gender: label}
			} else {
				errs.add("gender_identity_id", invalidPK(*id))
			}
		}
	}
	if req.FundingSourceID.Set {
		st.FundingSource = nil
		if id := req.FundingSourceID.Value; id != nil {
			if label := d.Label(student.LookupFunding, *id); label != "" {
				st.FundingSource = &student.FundingSource{ID: *id, Name: label}
			} else {
				errs.add("funding_source_id", invalidPK(*id))
			}
		}
	}
	if req.DiscAssessmentTypeID.Set {
		st.DiscAssessmentType = nil
		if id := req.DiscAssessmentTypeID.Value; id != nil {
			if label := d.Label(student.LookupDisc, *id); label != "" {
				st.DiscAssessmentType = &student.AssessmentType{ID: *id, TypeName: label}
			} else {
				errs.add("disc_assessment_type_id", invalidPK(*id))
			}
		}
	}
	if req.SixteenTypesAssessmentID.Set {
		st.SixteenTypesAssessment = nil
		if id := req.SixteenTypesAssessmentID.Value; id != nil {
			if label := d.Label(student.LookupSixteen, *id); label != "" {
				st.SixteenTypesAssessment = &student.AssessmentType{ID: *id, TypeName: label}
			} else {
				errs.add("sixteen_types_assessment_id", invalidPK(*id))
			}
		}
	}
	if req.EnneagramResultID.Set {
		st.EnneagramResult = nil
		if id := req.EnneagramResultID.Value; id != nil {
			if label := d.Label(student.LookupEnneagram, *id); label != "" {
				st.EnneagramResult = &student.EnneagramResult{ID: *id, ResultName: label}
			} else {
				errs.add("enneagram_result_id", invalidPK(*id))
			}
		}
	}
	if req.OshaTypeID.Set {
		st.OshaType = nil
		if id := req.OshaTypeID.Value; id != nil {
			if label := d.Label(student.LookupOsha, *id); label != "" {
				st.OshaType = &student.OshaType{ID: *id, Name: label}
			} else {
				errs.add("osha_type_id", invalidPK(*id))
			}
		}
	}

	for _, flag := range []struct {
		in  *bool
		dst *bool
	}{
		{req.Complete50HourTraining, &st.Complete50HourTraining},
		{req.PassedOsha10Exam, &st.PassedOsha10Exam},
		{req.HammerMath, &st.HammerMath},
		{req.EmployabilitySkills, &st.EmployabilitySkills},
		{req.JobInterviewSkills, &st.JobInterviewSkills},
		{req.PassedRulerAssessment, &st.PassedRulerAssessment},
	} {
		if flag.in != nil {
			*flag.dst = *flag.in
		}
	}

	setScore := func(field string, in nullable[int], dst **int) {
		if !in.Set {
			return
		}
		if in.Value == nil {
			*dst = nil
			return
		}
		switch v := *in.Value; {
		case v < 0:
			errs.add(field, "Ensure this value is greater than or equal to 0.")
		case v > 100:
			errs.add(field, "Ensure this value is less than or equal to 100.")
		default:
			*dst = &v
		}
	}
	setScore("pretest_score", req.PretestScore, &st.PretestScore)
	setScore("posttest_score", req.PosttestScore, &st.PosttestScore)

	if len(errs) > 0 {
		return base, errs
	}
	if st.StartDate != "" && st.EndDate != "" && st.EndDate < st.StartDate {
		errs.add("end_date", "Must be on/after start_date.")
	}
	if st.PassedOsha10Exam {
		if st.OshaCompletionDate == "" {
			errs.add("osha_completion_date", "Required if OSHA exam passed.")
		}
		if st.OshaType == nil {
			errs.add("osha_type_id", "Required if OSHA exam passed.")
		}
	}
	if len(errs) > 0 {
		return base, errs
	}
	return st, nil
}

func invalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

var errBadStudent = errors.New("student data is required")

// certificateStudent pulls the student out of a generate request body.
func certificateStudent(r *http.Request) (student.Student, error) {
	var body struct {
		Student *student.Student `json:"student"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Student == nil {
		return student.Student{}, errBadStudent
	}
	if strings.TrimSpace(body.Student.FullName) == "" {
		return student.Student{}, errBadStudent
	}
	return *body.Student, nil
}
