package tasks

import (
	"fmt"

	"github.com/alistairewj/oasis/redis"
)

type Client struct {
	Encounters EncounterTasks
	Jobs       JobTasks
}

// NewClient is a preferred way for working with task documents
func NewClient() (Client, error) {
	encountersRedisClient, err := redis.NewClient(EncountersDB)
	if err != nil {
		return Client{}, err
	}
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Encounters: EncounterTasks{client: encountersRedisClient},
		Jobs:       JobTasks{client: jobsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Encounters.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
