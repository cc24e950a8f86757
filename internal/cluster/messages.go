package cluster

// SimTask es la tarea que el coordinador (API) manda a cada nodo ML para
// reconstruir similitudes. El nodo carga los ratings desde Mongo, arma la
// matriz y calcula las filas de su shard.
type SimTask struct {
	JobID      string `json:"jobId"`
	ShardID    int    `json:"shardId"` // id del shard (0..Shards-1)
	Shards     int    `json:"shards"`  // total de shards/nodos
	Metric     string `json:"metric"`  // pearson|euclidean
	LowerBound int    `json:"lowerBound"`
	K          int    `json:"k"` // vecinos a persistir por usuario
}

// SimResult es lo que responde cada nodo: conteos de diagnóstico del
// shard, no los datos (esos van directo a Mongo). Los pares indefinidos
// se reportan por métrica.
type SimResult struct {
	ShardID        int    `json:"shardId"`
	UsersProcessed int    `json:"usersProcessed"`
	PairsComputed  int    `json:"pairsComputed"`
	UndefinedCorr  int    `json:"undefinedCorr"`
	UndefinedDist  int    `json:"undefinedDist"`
	ElapsedMs      int64  `json:"elapsedMs"`
	Error          string `json:"error,omitempty"`
}
