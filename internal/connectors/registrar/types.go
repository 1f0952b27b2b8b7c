package registrar

import "github.com/coursewatch/coursewatch/internal/core/domain"

// searchResponse is the upstream search result envelope.
type searchResponse struct {
	Success     bool         `json:"success"`
	TotalCount  int          `json:"totalCount"`
	PageOffset  int          `json:"pageOffset"`
	PageMaxSize int          `json:"pageMaxSize"`
	Data        []courseJSON `json:"data"`
}

// courseJSON is one course record as the registrar serialises it.
type courseJSON struct {
	Term           string  `json:"term"`
	CRN            string  `json:"courseReferenceNumber"`
	Subject        string  `json:"subject"`
	CourseNumber   string  `json:"courseNumber"`
	Section        string  `json:"sequenceNumber"`
	Title          string  `json:"courseTitle"`
	Instructor     string  `json:"instructorName"`
	MeetingTimes   string  `json:"meetingTimes"`
	SeatsAvailable int     `json:"seatsAvailable"`
	SeatsCapacity  int     `json:"maximumEnrollment"`
	Credits        float64 `json:"creditHours"`
}

// toDomain maps a wire record into the domain type. Some registrar
// deployments omit the term on each record; fall back to the query's term.
func (j courseJSON) toDomain(term string) domain.CourseRecord {
	if j.Term != "" {
		term = j.Term
	}
	return domain.CourseRecord{
		Term:           term,
		CRN:            j.CRN,
		Subject:        j.Subject,
		CourseNumber:   j.CourseNumber,
		Section:        j.Section,
		Title:          j.Title,
		Instructor:     j.Instructor,
		MeetingTimes:   j.MeetingTimes,
		SeatsAvailable: j.SeatsAvailable,
		SeatsCapacity:  j.SeatsCapacity,
		Credits:        j.Credits,
	}
}

// toResult maps the envelope into a domain search result.
func (r searchResponse) toResult(term string) *domain.SearchResult {
	records := make([]domain.CourseRecord, 0, len(r.Data))
	for _, rec := range r.Data {
		records = append(records, rec.toDomain(term))
	}
	return &domain.SearchResult{
		Success:     r.Success,
		TotalCount:  r.TotalCount,
		PageOffset:  r.PageOffset,
		PageMaxSize: r.PageMaxSize,
		Records:     records,
	}
}
