package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"academy.org/internal/auth"
	"academy.org/internal/obs"
)

// Student is the business record behind the student endpoints.
type Student struct {
	ID   int    `json:"studentId" validate:"gte=0"`
	Name string `json:"studentName" validate:"required,max=200"`
}

// roster is the fixed, read-only student list. Writes are accepted and
// logged but not applied.
type roster struct {
	students []Student
}

func newRoster() *roster {
	return &roster{students: []Student{
		{ID: 1, Name: "student1"},
		{ID: 2, Name: "student2"},
		{ID: 3, Name: "student3"},
	}}
}

func (ro *roster) all() []Student {
	return append([]Student(nil), ro.students...)
}

func (ro *roster) byID(id int) (Student, bool) {
	for _, s := range ro.students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

func (a *API) listStudents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.students.all())
}

func (a *API) getStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentIDParam(w, r)
	if !ok {
		return
	}
	s, found := a.students.byID(id)
	if !found {
		writeError(w, r, http.StatusNotFound, "student "+strconv.Itoa(id)+" does not exist")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) registerStudent(w http.ResponseWriter, r *http.Request) {
	s, ok := decodeStudent(w, r)
	if !ok {
		return
	}
	obs.Ctx(r.Context()).Info().
		Str("by", subjectOf(r)).
		Int("student_id", s.ID).
		Str("student_name", s.Name).
		Msg("register student")
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) updateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentIDParam(w, r)
	if !ok {
		return
	}
	s, ok := decodeStudent(w, r)
	if !ok {
		return
	}
	obs.Ctx(r.Context()).Info().
		Str("by", subjectOf(r)).
		Int("student_id", id).
		Str("student_name", s.Name).
		Msg("update student")
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentIDParam(w, r)
	if !ok {
		return
	}
	obs.Ctx(r.Context()).Info().
		Str("by", subjectOf(r)).
		Int("student_id", id).
		Msg("delete student")
	w.WriteHeader(http.StatusNoContent)
}

func studentIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "studentId"))
	if err != nil || id < 0 {
		writeError(w, r, http.StatusBadRequest, "studentId must be a non-negative integer")
		return 0, false
	}
	return id, true
}

func decodeStudent(w http.ResponseWriter, r *http.Request) (Student, bool) {
	var s Student
	if err := decodeJSON(r, &s); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return Student{}, false
	}
	if err := validate.Struct(s); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return Student{}, false
	}
	return s, true
}

func subjectOf(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		return p.Subject()
	}
	return ""
}
