package gateway

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout 固定 worker 池, 把同一负载塞进一批连接的发送队列。
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					select {
					case <-c.quit:
						// 连接已在收尾, 丢弃
					case c.Send <- job.payload:
					default:
						// 慢客户端直接跳过, 不阻塞其余连接
					}
				}
			}
		}()
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}
