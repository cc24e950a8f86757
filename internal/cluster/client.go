package cluster

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
)

// SendSimTask abre una conexión TCP al nodo, manda la tarea en JSON y
// espera el resultado. Una tarea por conexión.
func SendSimTask(ctx context.Context, addr string, task *SimTask) (*SimResult, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	enc := json.NewEncoder(conn)
	if err := enc.Encode(task); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bufio.NewReader(conn))
	var res SimResult
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, fmt.Errorf("nodo %s shard %d: %s", addr, res.ShardID, res.Error)
	}
	return &res, nil
}
