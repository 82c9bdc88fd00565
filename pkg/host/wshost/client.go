package wshost

// ClientScript connects a page to a wshost endpoint. The page sets
// window.NAVROUTE_WS to the endpoint URL before loading it.
const ClientScript = `
<script>
(function() {
    'use strict';

    function current() {
        return {
            path: location.pathname,
            query: location.search.replace(/^\?/, ''),
            fragment: location.hash.replace(/^#/, '')
        };
    }

    var ws = new WebSocket(window.NAVROUTE_WS);

    function send(type) {
        if (ws.readyState === WebSocket.OPEN) {
            ws.send(JSON.stringify({type: type, location: current()}));
        }
    }

    ws.onopen = function() {
        send('location');
    };

    ws.onmessage = function(e) {
        var msg;
        try {
            msg = JSON.parse(e.data);
        } catch (err) {
            return;
        }

        switch (msg.type) {
            case 'push':
                history.pushState(null, '', msg.path);
                send('location');
                break;

            case 'hash':
                location.hash = msg.fragment || '';
                break;

            case 'state':
                window.dispatchEvent(new CustomEvent('navroute:state', {detail: msg.state}));
                break;
        }
    };

    window.addEventListener('popstate', function() { send('popstate'); });
    window.addEventListener('hashchange', function() { send('hashchange'); });
})();
</script>
`
