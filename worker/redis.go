package worker

import (
	"fmt"

	"github.com/alistairewj/oasis/tasks"
)

type redisTransactions interface {
	getEncounterTask(redisKey string) (*tasks.EncounterTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	err := wrapper.tasksClient.Encounters.Update(task.redisKey, func(task *tasks.EncounterTask) {
		task.TaskStatuses.Oasis.Status = tasks.TaskStatusStarted
		task.TaskStatuses.Oasis.Attempts += 1
		task.TaskStatuses.Oasis.StartedAt = getFormattedNow()
		task.TaskStatuses.Oasis.CompletedAt = nil
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	err := wrapper.tasksClient.Encounters.Update(task.redisKey, func(encounterTask *tasks.EncounterTask) {
		encounterTask.TaskStatuses.Oasis.Status = tasks.TaskStatusCanceled
		encounterTask.TaskStatuses.Oasis.StartedAt = getFormattedNow()
		encounterTask.TaskStatuses.Oasis.CompletedAt = getFormattedNow()
		encounterTask.TaskStatuses.Oasis.Attempts += 1
		encounterTask.TaskStatuses.Oasis.ErrorMessages = append(
			encounterTask.TaskStatuses.Oasis.ErrorMessages,
			errorMessages...,
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	return wrapper.tasksClient.Encounters.Update(task.redisKey, func(encounterTask *tasks.EncounterTask) {
		encounterTask.FailedTasks = append(encounterTask.FailedTasks, "oasis")
		encounterTask.TaskStatuses.Oasis.Status = tasks.TaskStatusCompletedFailure
		encounterTask.TaskStatuses.Oasis.StartedAt = getFormattedNow()
		encounterTask.TaskStatuses.Oasis.CompletedAt = getFormattedNow()
		encounterTask.TaskStatuses.Oasis.Attempts += 1
		encounterTask.TaskStatuses.Oasis.ErrorMessages = append(
			encounterTask.TaskStatuses.Oasis.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				encounterTask.TaskStatuses.Oasis.Attempts,
				maxRetries,
			),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Encounters.Update(task.redisKey, func(encounterTask *tasks.EncounterTask) {
		encounterTask.TaskStatuses.Oasis.Status = tasks.TaskStatusFailed
		encounterTask.TaskStatuses.Oasis.CompletedAt = getFormattedNow()
		encounterTask.TaskStatuses.Oasis.ErrorMessages = append(encounterTask.TaskStatuses.Oasis.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Encounters.Update(task.redisKey, func(encounterTask *tasks.EncounterTask) {
		if !encounterTask.TaskStatuses.Oasis.Status.Complete() {
			encounterTask.TaskStatuses.Oasis.Status = tasks.TaskStatusCompletedSuccess
		}
		encounterTask.TaskStatuses.Oasis.CompletedAt = getFormattedNow()
		encounterTask.TaskStatuses.Oasis.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getEncounterTask(redisKey string) (*tasks.EncounterTask, error) {
	return wrapper.tasksClient.Encounters.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.encounterTask.JobID)
}
