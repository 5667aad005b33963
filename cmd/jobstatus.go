package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type eventLevel uint

// Event levels for job status reporting
const (
	Info  eventLevel = 0
	Warn  eventLevel = 1
	Error eventLevel = 2
	Fatal eventLevel = 3
)

func (l eventLevel) String() string {
	switch l {
	case Warn:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	}
	return "info"
}

type event struct {
	ID          int64      `json:"-"`
	JobStatusID int64      `json:"-"`
	Level       eventLevel `json:"-"`
	Text        string     `json:"text"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type jobStatus struct {
	ID             int64      `json:"id"`
	OriginatorID   int64      `json:"originatorID"`
	OriginatorType string     `json:"originatorType"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Failures       uint       `json:"failures"`
	Error          string     `json:"error"`
	Events         []event    `gorm:"foreignKey:JobStatusID" json:"-"`
	StartedAt      *time.Time `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

func (svc *ServiceContext) createJobStatus(job string, origType string, origID int64) (*jobStatus, error) {
	log.Printf("INFO: create job status %s %s %d", job, origType, origID)
	now := time.Now()
	js := jobStatus{OriginatorID: origID, OriginatorType: origType, Name: job, Status: "running", StartedAt: &now}
	err := svc.GDB.Create(&js).Error
	if err != nil {
		return nil, err
	}
	return &js, nil
}

func (svc *ServiceContext) jobDone(status *jobStatus) {
	if status.EndedAt == nil {
		e := event{JobStatusID: status.ID, Level: Info, Text: "job finished"}
		err := svc.GDB.Create(&e).Error
		if err != nil {
			log.Printf("ERROR: unable to log job %d done event: %s", status.ID, err.Error())
		}

		now := time.Now()
		status.EndedAt = &now
		status.Status = "finished"
		svc.GDB.Model(status).Select("ended_at", "status").Updates(jobStatus{EndedAt: &now, Status: "finished"})
		log.Printf("INFO: [job %d finished] %s with %d failures", status.ID, status.Name, status.Failures)
	}
}

func (svc *ServiceContext) addEvent(status *jobStatus, level eventLevel, text string) {
	log.Printf("INFO: [job %d %s]: %s", status.ID, level, text)
	e := event{JobStatusID: status.ID, Level: level, Text: text}
	err := svc.GDB.Create(&e).Error
	if err != nil {
		log.Printf("ERROR: unable to log job %d %s event [%s]: %s", status.ID, level, text, err.Error())
	}
}

func (svc *ServiceContext) logInfo(status *jobStatus, text string) {
	if status == nil {
		log.Printf("INFO: %s", text)
		return
	}
	svc.addEvent(status, Info, text)
}

func (svc *ServiceContext) logWarning(status *jobStatus, text string) {
	if status == nil {
		log.Printf("WARNING: %s", text)
		return
	}
	svc.addEvent(status, Warn, text)
}

func (svc *ServiceContext) logError(status *jobStatus, text string) {
	if status == nil {
		log.Printf("ERROR: %s", text)
		return
	}
	svc.addEvent(status, Error, text)
	status.Failures++
	svc.GDB.Model(status).Select("failures").Updates(jobStatus{Failures: status.Failures})
}

func (svc *ServiceContext) logFatal(status *jobStatus, text string) {
	if status.EndedAt == nil {
		svc.addEvent(status, Fatal, text)
		now := time.Now()
		status.EndedAt = &now
		status.Status = "failure"
		svc.GDB.Model(status).Select("ended_at", "status", "error").Updates(jobStatus{EndedAt: &now, Status: "failure", Error: text})
	}
}

// getJobStatus reports a job along with its event log
func (svc *ServiceContext) getJobStatus(c *gin.Context) {
	jID := c.Param("id")
	var js jobStatus
	err := svc.GDB.Preload("Events").First(&js, jID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.String(http.StatusNotFound, "not found")
		} else {
			c.String(http.StatusInternalServerError, err.Error())
		}
		return
	}

	type eventResp struct {
		Level string `json:"level"`
		event
	}
	events := make([]eventResp, 0, len(js.Events))
	for _, e := range js.Events {
		events = append(events, eventResp{Level: e.Level.String(), event: e})
	}
	c.JSON(http.StatusOK, gin.H{"job": js, "events": events})
}
