package introspection

import (
	"time"

	"github.com/tue-robotics/executive-smach/msgs"
	"github.com/tue-robotics/executive-smach/smach"
)

// containerProxy reports for exactly one container in the tree. The path
// ties every message it emits to that container instance.
type containerProxy struct {
	path      string
	container smach.Container
}

// buildProxies walks the container tree depth-first and creates one proxy
// per nested container.
func buildProxies(path string, c smach.Container) []*containerProxy {
	proxies := []*containerProxy{{path: path, container: c}}
	for _, label := range c.Children() {
		child, ok := c.Child(label)
		if !ok {
			continue
		}
		if nested, ok := child.(smach.Container); ok {
			proxies = append(proxies, buildProxies(path+msgs.PathSep+label, nested)...)
		}
	}
	return proxies
}

func (p *containerProxy) structure() msgs.SmachContainerStructure {
	edges := p.container.InternalEdges()
	outcomes := make([]string, 0, len(edges))
	from := make([]string, 0, len(edges))
	to := make([]string, 0, len(edges))
	for _, e := range edges {
		outcomes = append(outcomes, e.Outcome)
		from = append(from, e.From)
		to = append(to, e.To)
	}

	return msgs.SmachContainerStructure{
		Stamp:             time.Now(),
		Path:              p.path,
		Children:          p.container.Children(),
		InternalOutcomes:  outcomes,
		OutcomesFrom:      from,
		OutcomesTo:        to,
		ContainerOutcomes: p.container.RegisteredOutcomes(),
	}
}

func (p *containerProxy) status(info string) (msgs.SmachContainerStatus, error) {
	localData, err := p.container.UserData().Encode()
	if err != nil {
		return msgs.SmachContainerStatus{}, err
	}

	return msgs.SmachContainerStatus{
		Stamp:         time.Now(),
		Path:          p.path,
		InitialStates: p.container.InitialStates(),
		ActiveStates:  p.container.ActiveStates(),
		LocalData:     localData,
		Info:          info,
	}, nil
}
