package tasks

import (
	"sync"

	"github.com/alistairewj/oasis/redis"
	"github.com/alistairewj/oasis/utils/maps"
)

const EncountersDB redis.DB = 0

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// EncounterTask is the platform task document for one patient encounter.
// FailedTasks lists the workers that already failed this encounter; other
// workers' statuses live alongside ours in task_statuses.
type EncounterTask struct {
	maps.BaseDocument
	JobID        string                `json:"job_id"`
	TableFileKey string                `json:"table_file_key"`
	FailedTasks  []string              `json:"failed_tasks"`
	TaskStatuses EncounterTaskStatuses `json:"task_statuses"`
}

// EncounterTaskCached is the "-cached-properties" copy of an encounter task
// read by sibling workers.
type EncounterTaskCached struct {
	maps.BaseDocument
	JobID       string   `json:"job_id"`
	WorkType    string   `json:"work_type"`
	FailedTasks []string `json:"failed_tasks"`
}

type EncounterTaskStatuses struct {
	Oasis EncounterTaskInfo `json:"oasis"`
}

type EncounterTaskInfo struct {
	ResultsFileKey string     `json:"results_file_key"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Status         TaskStatus `json:"status"`
	ErrorMessages  []string   `json:"error_messages"`
}

type EncounterTasks struct {
	client redis.Client
}

func (tasks EncounterTasks) Get(redisKey string) (*EncounterTask, error) {
	var task EncounterTask
	err := tasks.client.GetPartialDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies updateFunc under the task lock and saves both the full
// document and its cached-properties copy.
func (tasks EncounterTasks) Update(redisKey string, updateFunc func(task *EncounterTask)) (err error) {
	releaseLock, err := tasks.client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()
	var task EncounterTask
	var cached EncounterTaskCached

	err = tasks.client.GetPartialDocument(redisKey, &task)
	if err != nil {
		return err
	}
	err = maps.ApplyUpdates(&task, updateFunc)
	if err != nil {
		return err
	}
	err = maps.CopyValues(&task, &cached)
	if err != nil {
		return err
	}
	errChan := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		errChan <- tasks.client.SaveDoc(redisKey, &task)
		wg.Done()
	}()
	go func() {
		errChan <- tasks.client.SaveDoc(cachedPropertiesKey(redisKey), &cached)
		wg.Done()
	}()
	wg.Wait()
	close(errChan)
	for err = range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}
