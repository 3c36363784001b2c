package medicover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/medicony/internal/matcher"
	"github.com/Freeeeeet/medicony/internal/model"
	"go.uber.org/zap"
)

// FreePrice единственная цена, при которой допускается бронирование.
// Платный слот для обслуживаемых аккаунтов считается аномалией.
const FreePrice = "0,00 zł"

const notAvailable = "N/A"

// SearchParams параметры поиска слотов
type SearchParams struct {
	Region     int64
	City       string
	Specialty  int64
	Clinic     int64
	Doctor     int64
	StartDate  time.Time
	Type       model.WatchType
	Exclusions model.Exclusions
}

// Session операции API от имени одного аккаунта
type Session struct {
	alias     string
	http      *HTTPClient
	endpoints Endpoints
	logger    *zap.Logger
}

func (s *Session) Alias() string {
	return s.alias
}

// FindAppointments ищет слоты. Пустой результат - пустой срез, ошибка - только при сбое запроса.
func (s *Session) FindAppointments(ctx context.Context, p SearchParams) ([]*model.Appointment, error) {
	searchType := p.Type
	if searchType == "" {
		searchType = model.WatchTypeStandard
	}
	start := p.StartDate
	if start.IsZero() {
		start = model.Today()
	}

	params := url.Values{}
	params.Set("RegionIds", strconv.FormatInt(p.Region, 10))
	params.Set("SpecialtyIds", strconv.FormatInt(p.Specialty, 10))
	if p.Clinic != 0 {
		params.Set("ClinicIds", strconv.FormatInt(p.Clinic, 10))
	}
	params.Set("Page", "1")
	params.Set("PageSize", "5000")
	params.Set("StartTime", start.Format(model.DateLayout))
	params.Set("SlotSearchType", string(searchType))
	params.Set("VisitType", model.DefaultVisitType)
	if p.Doctor != 0 {
		params.Set("DoctorIds", strconv.FormatInt(p.Doctor, 10))
	}

	resp, err := s.http.Get(ctx, s.endpoints.slotsURL(), params)
	if err != nil {
		return nil, fmt.Errorf("search appointments: %w", err)
	}
	var payload map[string]json.RawMessage
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	rawItems, ok := payload["items"]
	if !ok {
		return nil, fmt.Errorf("search appointments: no items: %w", ErrMalformedResponse)
	}
	// "items": null означает пустую выдачу
	var items []model.RawAppointment
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, fmt.Errorf("search appointments: decode items: %w", ErrMalformedResponse)
	}

	found := make([]*model.Appointment, 0, len(items))
	for _, raw := range items {
		if p.City != "" && p.City != "any" && (raw.Clinic == nil || !strings.Contains(raw.Clinic.Name, p.City)) {
			continue
		}
		a, err := raw.ToAppointment()
		if err != nil {
			s.logger.Warn("Skipping unreadable appointment", zap.Error(err))
			continue
		}
		if matcher.IsExcluded(a, p.Exclusions) {
			continue
		}
		found = append(found, a)
	}
	return found, nil
}

type visitDetail struct {
	ClinicID    string `json:"clinicId"`
	DoctorID    string `json:"doctorId"`
	SpecialtyID string `json:"specialtyId"`
}

type priceRequest struct {
	VisitDate    string          `json:"visitDate"`
	VisitDetails []visitDetail   `json:"visitDetails"`
	VisitVariant model.WatchType `json:"visitVariant"`
}

type bookingRequest struct {
	BookingString string          `json:"bookingString"`
	Metadata      bookingMetadata `json:"metadata"`
}

type bookingMetadata struct {
	AppointmentSource string `json:"appointmentSource"`
}

// BookAppointment бронирует слот. Сначала запрашивается цена: всё, кроме
// FreePrice, отклоняется с ErrPriceNotFree без запроса на бронирование.
// Возвращает копию слота с идентификатором брони и псевдонимом аккаунта.
func (s *Session) BookAppointment(ctx context.Context, a *model.Appointment, t model.WatchType) (*model.Appointment, error) {
	if t == "" {
		t = model.WatchTypeStandard
	}
	body, err := s.http.Post(ctx, s.endpoints.pricesURL(), priceRequest{
		VisitDate: a.DateTime.Format("2006-01-02T15:04:05"),
		VisitDetails: []visitDetail{{
			ClinicID:    strconv.FormatInt(a.Clinic.ID, 10),
			DoctorID:    strconv.FormatInt(a.Doctor.ID, 10),
			SpecialtyID: strconv.FormatInt(a.Specialty.ID, 10),
		}},
		VisitVariant: t,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch visit price: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch visit price: %w", ErrBookingFailed)
	}
	var prices []struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("decode visit price: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("empty visit price list: %w", ErrMalformedResponse)
	}
	if prices[0].Price != FreePrice {
		s.logger.Error("Appointment price is not free, will not book", zap.String("price", prices[0].Price))
		return nil, fmt.Errorf("%w: %s", ErrPriceNotFree, prices[0].Price)
	}

	body, err = s.http.Post(ctx, s.endpoints.bookURL(), bookingRequest{
		BookingString: a.BookingString,
		Metadata:      bookingMetadata{AppointmentSource: "Direct"},
	})
	if err != nil {
		return nil, fmt.Errorf("send booking request: %w", err)
	}
	if len(body) == 0 {
		return nil, ErrBookingFailed
	}
	var booked struct {
		AppointmentID model.FlexString `json:"appointmentId"`
	}
	if err := json.Unmarshal(body, &booked); err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}
	if booked.AppointmentID == "" {
		return nil, fmt.Errorf("booking response without appointmentId: %w", ErrBookingFailed)
	}

	out := *a
	out.BookingIdentifier = string(booked.AppointmentID)
	out.Account = s.alias
	s.logger.Info("Appointment booked",
		zap.String("booking_id", out.BookingIdentifier),
		zap.Time("date", out.DateTime),
	)
	return &out, nil
}

// FindAndBookAppointment ищет слот на dateTime и бронирует первый подходящий
func (s *Session) FindAndBookAppointment(
	ctx context.Context,
	p SearchParams,
	dateTime time.Time,
	exactTimeMatch, exactDateMatch bool,
) (*model.Appointment, error) {
	if p.StartDate.IsZero() {
		p.StartDate = model.DateOf(dateTime)
	}
	found, err := s.FindAppointments(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		s.logger.Error("Appointment not found", zap.Int64("specialty", p.Specialty))
		return nil, nil
	}

	c := matcher.Criteria{Specialty: p.Specialty, Clinic: p.Clinic, Doctor: p.Doctor}
	target := matcher.MatchSingleAppointment(c, dateTime, found, exactTimeMatch, exactDateMatch)
	if target == nil {
		s.logger.Error("No appointment found matching criteria",
			zap.Int64("specialty", p.Specialty),
			zap.Int64("clinic", p.Clinic),
			zap.Int64("doctor", p.Doctor),
			zap.Time("date", dateTime),
		)
		return nil, nil
	}
	return s.BookAppointment(ctx, target, p.Type)
}

// CancelAppointment отменяет визит: ищет его среди запланированных и удаляет.
// false без ошибки - визит не найден или провайдер отказал.
func (s *Session) CancelAppointment(ctx context.Context, a *model.Appointment) (bool, error) {
	resp, err := s.http.Get(ctx, s.endpoints.plannedURL(), nil)
	if err != nil {
		return false, fmt.Errorf("list planned appointments: %w", err)
	}
	var planned struct {
		Items []model.RawAppointment `json:"items"`
	}
	if err := resp.Decode(&planned); err != nil {
		return false, err
	}

	id, ok := matcher.MatchSingleAppointmentToBeCanceled(a, planned.Items)
	if !ok {
		s.logger.Error("Couldn't extract the cancel ID from server for given appointment")
		return false, nil
	}

	body, err := s.http.Delete(ctx, s.endpoints.cancelURL(url.PathEscape(id)))
	if err != nil {
		return false, fmt.Errorf("cancel appointment: %w", err)
	}
	if len(body) == 0 {
		return false, nil
	}
	var result struct {
		Status       string          `json:"status"`
		ErrorDetails json.RawMessage `json:"errorDetails"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("decode cancel response: %w", err)
	}
	if result.Status != "Success" {
		s.logger.Error("Couldn't cancel the appointment", zap.ByteString("error_details", result.ErrorDetails))
		return false, nil
	}
	return true, nil
}

// FindFilters загружает каталог фильтров
func (s *Session) FindFilters(ctx context.Context, p FilterParams) (*Filters, error) {
	t := p.Type
	if t == "" {
		t = model.WatchTypeStandard
	}
	params := url.Values{}
	params.Set("SlotSearchType", string(t))
	if p.Region != 0 {
		params.Set("RegionIds", strconv.FormatInt(p.Region, 10))
	}
	if p.Specialty != 0 {
		params.Set("SpecialtyIds", strconv.FormatInt(p.Specialty, 10))
	}

	resp, err := s.http.Get(ctx, s.endpoints.filtersURL(), params)
	if err != nil {
		return nil, fmt.Errorf("find filters: %w", err)
	}
	var filters Filters
	if err := resp.Decode(&filters); err != nil {
		return nil, err
	}
	return &filters, nil
}

// UpdateWatchMetadata подставляет подписи региона, специальностей, клиники и врача.
// Не найденные подписи остаются "N/A" и логируются предупреждением.
func (s *Session) UpdateWatchMetadata(ctx context.Context, w *model.Watch) error {
	for i := range w.Specialties {
		spec := &w.Specialties[i]
		filters, err := s.FindFilters(ctx, FilterParams{Region: w.Region.ID, Specialty: spec.ID, Type: w.Type})
		if err != nil {
			return err
		}

		spec.Label = notAvailable
		w.Region.Label = notAvailable
		if label, ok := Label(filters.Regions, w.Region.ID); ok {
			w.Region.Label = label
		}

		if label, ok := Label(filters.Specialties, spec.ID); ok {
			spec.Label = label
		} else if w.Type == model.WatchTypeExamination {
			s.logger.Warn("Couldn't read the details for watch, your account needs an admission to be able to search for examinations",
				zap.Int64("watch_id", w.ID),
				zap.String("type", string(w.Type)),
			)
		} else {
			s.logger.Warn("Human-readable data not found for watch, most likely a temporary problem with the API",
				zap.Int64("watch_id", w.ID),
			)
		}

		if w.Doctor != nil {
			if label, ok := Label(filters.Doctors, w.Doctor.ID); ok {
				w.Doctor.Label = label
			}
		}
		if w.Clinic != nil {
			if label, ok := Label(filters.Clinics, w.Clinic.ID); ok {
				w.Clinic.Label = label
			}
		}
	}
	return nil
}

// UpdateAppointmentMetadata подставляет подписи клиники, специальности и врача
func (s *Session) UpdateAppointmentMetadata(ctx context.Context, a *model.Appointment) error {
	filters, err := s.FindFilters(ctx, FilterParams{Specialty: a.Specialty.ID})
	if err != nil {
		return err
	}
	a.Clinic.Label = labelOrNA(filters.Clinics, a.Clinic.ID)
	a.Specialty.Label = labelOrNA(filters.Specialties, a.Specialty.ID)
	if a.Doctor.ID != 0 {
		a.Doctor.Label = labelOrNA(filters.Doctors, a.Doctor.ID)
	}
	return nil
}

func labelOrNA(items []FilterItem, id int64) string {
	if label, ok := Label(items, id); ok {
		return label
	}
	return notAvailable
}

// IsSemanticFailure отказ провайдера, который не является сбоем: цена, отказ в брони
func IsSemanticFailure(err error) bool {
	return errors.Is(err, ErrPriceNotFree) || errors.Is(err, ErrBookingFailed)
}
